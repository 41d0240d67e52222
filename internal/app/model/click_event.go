package model

import "time"

// ClickEvent is the append-only audit record of one resolution. LinkSlug is
// a weak reference: the owning Link may be deleted later, orphaned events
// are kept for audit.
type ClickEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	LinkSlug  string    `json:"link_slug" gorm:"size:8;index:idx_click_events_link_slug;not null"`
	IP        string    `json:"ip" gorm:"size:64"`
	UserAgent string    `json:"user_agent" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"index;not null"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-stats-warmer"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
