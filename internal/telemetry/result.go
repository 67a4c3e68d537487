// Package telemetry fetches and parses NDBC station observations. Units are
// converted here, once: m/s to knots, metres to feet, °C to °F.
package telemetry

import (
	"context"

	"github.com/mr1hm/go-surf-report/internal/models"
)

type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusMalformed
	StatusTransportError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusMalformed:
		return "malformed"
	case StatusTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one station fetch. Reading is set only when
// Status is StatusOK; Err carries the cause for the other statuses.
type Result struct {
	StationID string
	Status    Status
	Reading   *models.Reading
	Err       error
}

// Present returns the reading, or nil for any failed fetch.
func (r Result) Present() *models.Reading {
	if r.Status != StatusOK {
		return nil
	}
	return r.Reading
}

// Fetcher returns the latest reading for a station. It never returns an
// error: every failure is folded into the Result status.
type Fetcher interface {
	Fetch(ctx context.Context, stationID string) Result
}
