package statsbomb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// BaseURL serves the StatsBomb open-data JSON tree
	BaseURL = "https://raw.githubusercontent.com/statsbomb/open-data/master/data"
)

// HTTPClientProvider hands out the shared (cached) HTTP client
type HTTPClientProvider interface {
	Client() (*http.Client, error)
}

// FetchError describes a failed call to the data provider
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("statsbomb request %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("statsbomb request %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client handles StatsBomb data requests
type Client struct {
	baseURL string
	clients HTTPClientProvider
	logger  *logrus.Entry
}

// New creates a StatsBomb client with a custom base URL
func New(baseURL string, clients HTTPClientProvider, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		clients: clients,
		logger:  logger.WithField("component", "statsbomb-client"),
	}
}

// FetchCompetitions lists every competition season available
func (c *Client) FetchCompetitions(ctx context.Context) ([]Competition, error) {
	var out []Competition
	if err := c.fetch(ctx, c.baseURL+"/competitions.json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchMatches lists the matches of one competition season
func (c *Client) FetchMatches(ctx context.Context, competitionID, seasonID int) ([]Match, error) {
	url := fmt.Sprintf("%s/matches/%d/%d.json", c.baseURL, competitionID, seasonID)
	var out []Match
	if err := c.fetch(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchLineups returns both team rosters for a match
func (c *Client) FetchLineups(ctx context.Context, matchID int) ([]Lineup, error) {
	url := fmt.Sprintf("%s/lineups/%d.json", c.baseURL, matchID)
	var out []Lineup
	if err := c.fetch(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchEvents returns the raw event feed of a match in provider order
func (c *Client) FetchEvents(ctx context.Context, matchID int) ([]RawEvent, error) {
	url := fmt.Sprintf("%s/events/%d.json", c.baseURL, matchID)
	var out []RawEvent
	if err := c.fetch(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// fetch makes a GET request through the shared client and decodes JSON
func (c *Client) fetch(ctx context.Context, url string, dest interface{}) error {
	httpClient, err := c.clients.Client()
	if err != nil {
		return &FetchError{URL: url, Err: fmt.Errorf("http client unavailable: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", url).Warn("Provider request failed")
		return &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	c.logger.WithFields(logrus.Fields{
		"url":        url,
		"from_cache": resp.Header.Get("X-From-Cache") == "1",
	}).Debug("Provider response received")

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &FetchError{URL: url, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
