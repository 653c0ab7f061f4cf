package model

import "time"

// ExportPayload is the canonical full-history snapshot shared by file
// download/upload and cloud sync.
type ExportPayload struct {
	SchemaVersion int              `json:"schema_version"`
	ExportedAt    time.Time        `json:"exported_at"`
	SessionCount  int              `json:"session_count"`
	PullCount     int              `json:"pull_count"`
	Sessions      []*ExportSession `json:"sessions"`
}

type ExportSession struct {
	SourceSessionID int     `json:"source_session_id"`
	CreatedAt       string  `json:"created_at"`
	ServerID        string  `json:"server_id"`
	Lang            string  `json:"lang"`
	Status          string  `json:"status"`
	Error           string  `json:"error"`
	Pulls           []*Pull `json:"pulls"`
}

// ImportResult carries the counters reported after a history import.
type ImportResult struct {
	SessionCount int `json:"session_count"`
	PullCount    int `json:"pull_count"`
}
