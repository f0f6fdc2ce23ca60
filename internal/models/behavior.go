package models

import "time"

// BehaviorLogEntry is one raw user action as reported by an action call site
// (e.g. "VIEW_BLOG", "CREATE_COMMENT"). Entries are append-only and the
// IsAnomalous flag is fixed at write time; the trust scorer and the anomaly
// detector both read this table over trailing time windows, hence the
// composite (user_id, created_at) index.
type BehaviorLogEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_behavior_user_time" json:"user_id"`
	Action      string    `gorm:"size:64;not null" json:"action"`
	EntityType  string    `gorm:"size:64" json:"entity_type,omitempty"`
	EntityID    string    `gorm:"size:64" json:"entity_id,omitempty"`
	IsAnomalous bool      `gorm:"not null;default:false" json:"is_anomalous"`
	IPAddress   string    `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent   string    `gorm:"size:255" json:"user_agent,omitempty"`
	CreatedAt   time.Time `gorm:"index:idx_behavior_user_time" json:"created_at"`
}

func (BehaviorLogEntry) TableName() string {
	return "behavior_log"
}
