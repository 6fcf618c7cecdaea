package relay

import "errors"

// ErrInvalidPayload is reported when a required field is missing after trimming.
var ErrInvalidPayload = errors.New("invalid payload")

// Messages shown to clients.
const (
	msgInvalidPayload = "Invalid payload"
	msgSendFailed     = "Failed to send message"
	msgJoinFailed     = "Failed to join room"
	msgHistoryFailed  = "Failed to load message history"
)
