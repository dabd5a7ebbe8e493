package model

import (
	"time"

	"gorm.io/datatypes"
)

type Report struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64          `gorm:"not null;index:idx_reports_user_timestamp,priority:1" json:"user_id"`
	User          *User          `gorm:"foreignKey:UserID" json:"-"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	ImageURL      *string        `gorm:"size:512" json:"image_url"`
	Latitude      float64        `gorm:"not null" json:"latitude"`
	Longitude     float64        `gorm:"not null" json:"longitude"`
	LocationName  *string        `gorm:"size:255;index" json:"location_name"`
	Status        string         `gorm:"not null;default:'Pending';size:20;index" json:"status"`
	Timestamp     *time.Time     `gorm:"index:idx_reports_user_timestamp,priority:2,sort:desc" json:"timestamp"`
	Address       *string        `gorm:"type:text" json:"address"`
	StatusHistory datatypes.JSON `json:"status_history,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}

// Status constants
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusRejected   = "Rejected"
)

// ValidStatus reports whether s is one of the report lifecycle states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// StatusChange is one entry of Report.StatusHistory.
type StatusChange struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	Note       string    `json:"note,omitempty"`
	ReviewedBy int64     `json:"reviewed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}
