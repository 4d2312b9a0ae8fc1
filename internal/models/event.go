package models

import "time"

// MonitoringEvent records the outcome of one polling pass or account failure
type MonitoringEvent struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Platform     Platform    `gorm:"size:16;index" json:"platform"`
	AccountName  string      `gorm:"size:255" json:"account_name,omitempty"`
	Status       EventStatus `gorm:"size:16" json:"status"`
	Message      string      `json:"message"`
	UpdatesFound int         `json:"updates_found"`
	Timestamp    time.Time   `gorm:"index" json:"timestamp"`
}

func (MonitoringEvent) TableName() string {
	return "monitoring_events"
}
