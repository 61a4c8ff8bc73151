package domain

// FileShare is the record fanned out for a single file relay. It exists
// only for the duration of the broadcast; the payload is an opaque blob
// (typically a base64 data URL) and is never stored server-side.
type FileShare struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Type   string `json:"type"`
	URL    string `json:"url"`
	Sender string `json:"sender"`
}
