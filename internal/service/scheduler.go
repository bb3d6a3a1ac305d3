package service

import (
	"context"
	"time"

	"catalogmirror/scraper/internal/domain"

	log "github.com/sirupsen/logrus"
)

// NeedsInitialSync reports whether the snapshot has never been populated.
func NeedsInitialSync(snapshot domain.Snapshot) bool {
	return snapshot.LastSync == nil || len(snapshot.Products) == 0
}

// RunScheduler syncs every interval until ctx is done. With syncOnStart, an empty snapshot is synced immediately.
// A tick that arrives while a run is in flight is skipped.
func (s *Service) RunScheduler(ctx context.Context, interval time.Duration, syncOnStart bool) error {
	if syncOnStart && NeedsInitialSync(s.Snapshot()) {
		log.Info("📭 No catalog yet, running initial sync")
		s.Sync(ctx)
	}

	if interval <= 0 {
		log.Info("⏸️ Periodic sync disabled")
		<-ctx.Done()
		return nil
	}

	log.Infof("⏰ Periodic sync every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.Sync(ctx)
		}
	}
}
