package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonNotReady    ReasonCode = "asr_not_ready"
	ReasonEmptyAudio  ReasonCode = "asr_empty_audio"
	ReasonDeadline    ReasonCode = "asr_deadline"
	ReasonApplication ReasonCode = "asr_application_error"

	ReasonConnectTimeout ReasonCode = "transport_connect_timeout"
	ReasonConnectFailed  ReasonCode = "transport_connect_failed"
	ReasonSendFailed     ReasonCode = "transport_send_failed"
	ReasonReadFailed     ReasonCode = "transport_read_failed"
	ReasonClosed         ReasonCode = "transport_closed"

	ReasonUnsupportedMessageType ReasonCode = "wire_unsupported_message_type"
	ReasonMalformedPayload       ReasonCode = "wire_malformed_payload"
	ReasonDecompress             ReasonCode = "wire_decompress"

	ReasonCapture ReasonCode = "capture"
)
