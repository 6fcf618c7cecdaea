package models

// RoomInfoResponse contains a live room and its current participants.
// Rooms exist only while at least one participant is joined.
type RoomInfoResponse struct {
	RoomID       string   `json:"room_id"`
	Participants []string `json:"participants"`
}

// UploadResponse is returned after a file has been stored.
type UploadResponse struct {
	// URL is where the stored file can be fetched; clients send it in a file event
	URL string `json:"url"`

	// Filename is the original client-side name, for display
	Filename string `json:"filename"`

	Mime string `json:"mime,omitempty"`
}

// ErrorResponse is the JSON body for failed HTTP requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
