package model

import "time"

// TurnEvent is published after a generated chat turn has been stored and
// rendered to audio.
type TurnEvent struct {
	HistoryID uint      `json:"history_id"`
	UserID    uint      `json:"user_id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	AudioURL  string    `json:"audio_url"`
	CreatedAt time.Time `json:"created_at"`
}
