package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// HeaderFromCache is set to "1" on responses served from the store
const HeaderFromCache = "X-From-Cache"

// cachedResponse is the stored form of a provider response
type cachedResponse struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	StoredAt   time.Time   `json:"stored_at"`
}

func (cr *cachedResponse) toResponse(req *http.Request, fromCache bool) *http.Response {
	header := cr.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if fromCache {
		header.Set(HeaderFromCache, "1")
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", cr.StatusCode, http.StatusText(cr.StatusCode)),
		StatusCode:    cr.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(cr.Body)),
		ContentLength: int64(len(cr.Body)),
		Request:       req,
	}
}

// TransportStats counts cache outcomes since startup
type TransportStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Shared int64 `json:"shared"`
	Errors int64 `json:"store_errors"`
}

// Transport is an http.RoundTripper that caches successful GET/HEAD
// responses by request signature. Concurrent misses for the same key share
// one upstream call.
type Transport struct {
	store  Store
	ttl    time.Duration
	next   http.RoundTripper
	group  singleflight.Group
	logger *logrus.Entry

	hits        atomic.Int64
	misses      atomic.Int64
	shared      atomic.Int64
	storeErrors atomic.Int64
}

// NewTransport wraps next with a caching layer over store
func NewTransport(store Store, ttl time.Duration, next http.RoundTripper, logger *logrus.Logger) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Transport{
		store:  store,
		ttl:    ttl,
		next:   next,
		logger: logger.WithField("component", "http-cache"),
	}
}

// RequestKey derives the cache key from the outbound request signature
func RequestKey(req *http.Request) string {
	sum := sha256.Sum256([]byte(req.Method + " " + req.URL.String() + " " + req.Header.Get("Accept")))
	return hex.EncodeToString(sum[:])
}

func cacheable(req *http.Request) bool {
	return (req.Method == http.MethodGet || req.Method == http.MethodHead) &&
		req.Header.Get("Range") == ""
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !cacheable(req) {
		return t.next.RoundTrip(req)
	}

	key := RequestKey(req)
	ctx := req.Context()
	log := t.logger.WithFields(logrus.Fields{"cache_key": key[:16], "url": req.URL.String()})

	data, ok, err := t.store.Get(ctx, key)
	if err != nil {
		// a broken store read degrades to a live request
		t.storeErrors.Add(1)
		log.WithError(err).Warn("Cache read failed")
	} else if ok {
		var cr cachedResponse
		if err := json.Unmarshal(data, &cr); err == nil {
			t.hits.Add(1)
			log.Debug("Cache hit")
			return cr.toResponse(req, true), nil
		}
		log.Warn("Discarding undecodable cache entry")
	}

	// a follower waits only as long as its own context allows; the leader's
	// fetch keeps going for whoever is still waiting
	ch := t.group.DoChan(key, func() (interface{}, error) {
		return t.fetch(req, key, log)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			t.shared.Add(1)
		}
		return res.Val.(*cachedResponse).toResponse(req, false), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Transport) fetch(req *http.Request, key string, log *logrus.Entry) (*cachedResponse, error) {
	t.misses.Add(1)

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	cr := &cachedResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		StoredAt:   time.Now().UTC(),
	}

	if resp.StatusCode != http.StatusOK {
		return cr, nil
	}

	payload, err := json.Marshal(cr)
	if err != nil {
		return cr, nil
	}
	// the write outlives a cancelled caller
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), 5*time.Second)
	defer cancel()
	if err := t.store.Set(writeCtx, key, payload, t.ttl); err != nil {
		t.storeErrors.Add(1)
		log.WithError(err).Warn("Cache write failed")
	} else {
		log.WithField("ttl", t.ttl.String()).Debug("Cached response")
	}

	return cr, nil
}

// Stats returns a snapshot of the cache counters
func (t *Transport) Stats() TransportStats {
	return TransportStats{
		Hits:   t.hits.Load(),
		Misses: t.misses.Load(),
		Shared: t.shared.Load(),
		Errors: t.storeErrors.Load(),
	}
}
