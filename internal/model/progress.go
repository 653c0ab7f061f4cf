package model

// Progress is the mutable per-session ingestion progress snapshot. It is
// process-local by design: a restart loses it along with in-flight sessions.
type Progress struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Error    string `json:"error"`
}

// SessionStatus is the payload of the import status polling endpoint.
type SessionStatus struct {
	SessionID int    `json:"session_id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	PullCount int    `json:"pull_count"`
}
