package model

import "time"

// SearchHistory is one answered chat turn. Rows are append-only.
type SearchHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_search_history_user_created,priority:1" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Query     string    `gorm:"size:500;not null" json:"query"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	CreatedAt time.Time `gorm:"index:idx_search_history_user_created,priority:2,sort:desc" json:"created_at"`
}
