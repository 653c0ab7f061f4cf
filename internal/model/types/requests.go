package types

// CreateSessionRequest starts one background import. Token and server id may
// be left empty when a page URL carrying them is supplied instead.
type CreateSessionRequest struct {
	Token      string `json:"token"`
	ServerID   string `json:"server_id"`
	PageURL    string `json:"page_url"`
	Lang       string `json:"lang"`
	ImportKind string `json:"import_kind" validate:"omitempty,oneof=character weapon"`
}

type CreateSessionResponse struct {
	SessionID int    `json:"session_id"`
	Status    string `json:"status"`
}

type CloudExportRequest struct {
	Provider string `json:"provider" validate:"required"`
}

type CloudImportRequest struct {
	Provider  string `json:"provider" validate:"required"`
	RemoteRef string `json:"remote_ref"`
}
