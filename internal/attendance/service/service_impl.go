package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/attendkit/presence/internal/attendance/domain"
	"github.com/attendkit/presence/internal/cachestore"
	"go.uber.org/zap"
)

// RemoteReader is the subset of the validator API the read side needs.
type RemoteReader interface {
	FetchHistory(ctx context.Context) ([]domain.HistoryRecord, error)
	FetchLocationMeta(ctx context.Context, id string) (*domain.LocationMeta, error)
}

const backgroundRefreshTimeout = 15 * time.Second

// Service serves attendance history and checkpoint metadata, cache-first.
type Service struct {
	store  *cachestore.Store
	remote RemoteReader
	log    *zap.Logger

	// Collapses concurrent background refreshes into one.
	refreshing atomic.Bool
}

func NewService(store *cachestore.Store, remote RemoteReader, log *zap.Logger) domain.Service {
	return &Service{
		store:  store,
		remote: remote,
		log:    log.Named("attendance.service"),
	}
}

// History implements the cache-first read. A cached list is always usable
// (history carries no TTL); freshness comes from refresh, not expiry.
func (s *Service) History(ctx context.Context, forceRefresh bool) ([]domain.HistoryRecord, error) {
	if !forceRefresh {
		if records, _, ok := s.store.History(ctx); ok {
			// Serve stale immediately; replace in the background.
			// A failed refresh is discarded: stale data is never
			// worse than no data.
			go s.backgroundRefresh()
			return s.decorate(ctx, records), nil
		}
	}

	records, err := s.remote.FetchHistory(ctx)
	if err != nil {
		if !forceRefresh {
			return nil, domain.ErrHistoryUnavailable
		}
		return nil, err
	}
	s.store.PutHistory(ctx, records)
	return s.decorate(ctx, records), nil
}

// RefreshHistory fetches the authoritative list and replaces the cache.
func (s *Service) RefreshHistory(ctx context.Context) error {
	records, err := s.remote.FetchHistory(ctx)
	if err != nil {
		return err
	}
	s.store.PutHistory(ctx, records)
	return nil
}

func (s *Service) backgroundRefresh() {
	if !s.refreshing.CompareAndSwap(false, true) {
		return
	}
	defer s.refreshing.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
	defer cancel()

	if err := s.RefreshHistory(ctx); err != nil {
		s.log.Debug("background history refresh discarded", zap.Error(err))
	}
}

// LocationMeta returns checkpoint metadata, cache-first with the store's
// fixed TTL.
func (s *Service) LocationMeta(ctx context.Context, id string) (*domain.LocationMeta, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidLocationID
	}

	if meta, ok := s.store.LocationMeta(ctx, id); ok {
		return meta, nil
	}

	meta, err := s.remote.FetchLocationMeta(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store.PutLocationMeta(ctx, *meta)
	return meta, nil
}

// SignOut drops every cached entry.
func (s *Service) SignOut(ctx context.Context) error {
	return s.store.InvalidateAll(ctx)
}

// decorate backfills display fields from cached location metadata. Only the
// cache is consulted; a history read never fans out to the network.
func (s *Service) decorate(ctx context.Context, records []domain.HistoryRecord) []domain.HistoryRecord {
	for i := range records {
		if records[i].LocationName != "" || records[i].LocationID == "" {
			continue
		}
		if meta, ok := s.store.LocationMeta(ctx, records[i].LocationID); ok {
			records[i].LocationName = meta.Name
			records[i].Building = meta.Building
		}
	}
	return records
}
