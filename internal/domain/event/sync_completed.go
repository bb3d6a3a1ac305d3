package event

import "time"

type SyncCompletedEvent struct {
	RunID           string    `json:"run_id"`           // uuid of the sync run
	SyncedAt        time.Time `json:"synced_at"`        // snapshot last_sync
	TotalProducts   int       `json:"total_products"`   // products in the snapshot
	TotalCategories int       `json:"total_categories"` // categories in the snapshot
}

func (e *SyncCompletedEvent) EventType() string {
	return "SyncCompleted"
}
