package domain

import (
	"context"
	"errors"
)

// Service is the read side of the engine: cached attendance history and
// checkpoint metadata.
type Service interface {
	// History returns the attendance history. With forceRefresh false a
	// cached list is returned immediately and refreshed in the
	// background; with forceRefresh true the cache is bypassed for the
	// read but still updated on success.
	History(ctx context.Context, forceRefresh bool) ([]HistoryRecord, error)

	// RefreshHistory fetches the history from the validator and replaces
	// the cached entry. Used by the orchestrator after a completed
	// attempt.
	RefreshHistory(ctx context.Context) error

	// LocationMeta returns checkpoint metadata, cache-first with a 24h
	// TTL.
	LocationMeta(ctx context.Context, id string) (*LocationMeta, error)

	// SignOut drops every cached entry.
	SignOut(ctx context.Context) error
}

var (
	ErrInvalidLocationID = errors.New("invalid_location_id")
	ErrHistoryUnavailable = errors.New("history_unavailable")
)
