package service

import (
	"context"
	"errors"
	"time"

	"catalogmirror/scraper/internal/client"
	"catalogmirror/scraper/internal/domain"
	"catalogmirror/scraper/internal/domain/event"
	"catalogmirror/scraper/internal/metrics"
	"catalogmirror/scraper/internal/queue"
	"catalogmirror/scraper/internal/repository"
	"catalogmirror/scraper/internal/state"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrSyncInProgress is returned when a sync is requested while another one is running.
var ErrSyncInProgress = errors.New("sync already in progress")

type Service struct {
	sessions  client.SessionFactory
	builder   *CatalogBuilder
	store     repository.SnapshotStore
	lock      state.SyncLock
	mirror    repository.ProductRepository
	publisher queue.Publisher
}

// NewService wires the sync pipeline. mirror and publisher are optional and may be nil.
func NewService(
	sessions client.SessionFactory,
	builder *CatalogBuilder,
	store repository.SnapshotStore,
	lock state.SyncLock,
	mirror repository.ProductRepository,
	publisher queue.Publisher,
) *Service {
	if lock == nil {
		lock = state.NewLocalSyncLock()
	}
	return &Service{
		sessions:  sessions,
		builder:   builder,
		store:     store,
		lock:      lock,
		mirror:    mirror,
		publisher: publisher,
	}
}

// Sync runs one full sync and reports whether a new snapshot was saved.
// It never panics and never returns an error; a run already in flight yields false.
func (s *Service) Sync(ctx context.Context) bool {
	ok, err := s.TrySync(ctx)
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			log.Warn("⏳ Sync skipped: another run is in progress")
		} else {
			log.Errorf("❌ Sync could not start: %v", err)
		}
		return false
	}
	return ok
}

// TrySync is Sync with the lock outcome exposed. It returns ErrSyncInProgress when a run is in flight.
func (s *Service) TrySync(ctx context.Context) (bool, error) {
	acquired, err := s.lock.TryLock(ctx)
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, ErrSyncInProgress
	}
	defer func() {
		if err := s.lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warnf("⚠️ Failed to release sync lock: %v", err)
		}
	}()

	return s.run(ctx), nil
}

// Snapshot returns the last saved snapshot, or the empty snapshot when there is none.
func (s *Service) Snapshot() domain.Snapshot {
	return s.store.Load()
}

func (s *Service) run(ctx context.Context) (ok bool) {
	runID := uuid.NewString()
	logger := log.WithField("run_id", runID)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("💥 Sync panicked: %v", r)
			ok = false
		}
		status := "ok"
		if !ok {
			status = "failed"
		}
		metrics.ObserveSync(status, time.Since(started))
	}()

	logger.Info("🚀 Starting catalog sync")

	session := s.sessions()
	defer session.Close()

	if !session.Connect(ctx) {
		logger.Errorf("❌ Could not connect to %s, sync aborted", session.ShopURL())
		return false
	}

	snapshot, err := s.builder.Build(ctx, session)
	if err != nil {
		logger.Errorf("❌ Failed to build catalog: %v", err)
		return false
	}

	if err := s.store.Save(snapshot); err != nil {
		logger.Errorf("❌ Failed to save snapshot: %v", err)
		return false
	}
	metrics.SetCatalogSize(snapshot.Stats.TotalProducts, snapshot.Stats.TotalCategories)

	s.mirrorProducts(ctx, logger, snapshot)
	s.announce(ctx, logger, runID, snapshot)

	logger.WithFields(log.Fields{
		"products":   snapshot.Stats.TotalProducts,
		"categories": snapshot.Stats.TotalCategories,
		"duration":   time.Since(started).Round(time.Millisecond).String(),
	}).Info("✅ Catalog sync finished")
	return true
}

func (s *Service) mirrorProducts(ctx context.Context, logger *log.Entry, snapshot domain.Snapshot) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.ReplaceProducts(ctx, snapshot.Products); err != nil {
		logger.Warnf("⚠️ Failed to mirror products to database: %v", err)
	}
}

func (s *Service) announce(ctx context.Context, logger *log.Entry, runID string, snapshot domain.Snapshot) {
	if s.publisher == nil {
		return
	}
	e := &event.SyncCompletedEvent{
		RunID:           runID,
		SyncedAt:        *snapshot.LastSync,
		TotalProducts:   snapshot.Stats.TotalProducts,
		TotalCategories: snapshot.Stats.TotalCategories,
	}
	if _, err := s.publisher.Publish(ctx, e); err != nil {
		logger.Warnf("⚠️ Failed to publish %s: %v", e.EventType(), err)
	}
}
