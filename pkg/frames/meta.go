package frames

// Metadata keys shared across the capture/recognition path.
const (
	MetaSessionID = "session_id"
	MetaReqID     = "req_id"
	MetaSource    = "source"
	MetaIsFinal   = "is_final"
	MetaBackend   = "backend"
	MetaReason    = "reason"
)
