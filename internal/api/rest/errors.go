package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fortuna/matchnarrator/internal/ingest/statsbomb"
	"github.com/fortuna/matchnarrator/internal/match"
	"github.com/fortuna/matchnarrator/internal/narrative"
	"github.com/fortuna/matchnarrator/internal/service"
)

// ValidationError is a malformed inbound request
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Error kinds reported to clients
const (
	KindValidation = "validation"
	KindUpstream   = "upstream"
	KindRoster     = "roster"
	KindGeneration = "generation"
	KindTimeout    = "timeout"
	KindNotFound   = "not_found"
	KindInternal   = "internal"
)

// errorKind classifies err; timeouts win over the wrapper they arrive in
func errorKind(err error) string {
	var (
		validationErr *ValidationError
		fetchErr      *statsbomb.FetchError
		genErr        *narrative.GenerationError
	)
	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.Is(err, match.ErrTimeout):
		return KindTimeout
	case errors.Is(err, match.ErrPlayerRoster):
		return KindRoster
	case errors.As(err, &genErr):
		return KindGeneration
	case errors.Is(err, service.ErrMatchNotFound):
		return KindNotFound
	case errors.As(err, &fetchErr):
		if fetchErr.StatusCode == http.StatusNotFound {
			return KindNotFound
		}
		return KindUpstream
	default:
		return KindInternal
	}
}

// lookupStatus maps an error kind to the status used by read endpoints
func lookupStatus(kind string) int {
	switch kind {
	case KindValidation, KindRoster:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
