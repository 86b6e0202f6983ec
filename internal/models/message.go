package models

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a session's conversation log
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMessageRequest is the body of POST /api/messages
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse answers POST /api/messages
type SendMessageResponse struct {
	Success  bool      `json:"success"`
	Reply    string    `json:"reply"`
	Source   string    `json:"source"` // "canned", "arithmetic", "llm"
	Messages []Message `json:"messages"`
}

// AttemptInfo describes one OCR strategy attempt in API responses
type AttemptInfo struct {
	Strategy   string `json:"strategy"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// OCRResponse answers POST /api/ocr/extract
type OCRResponse struct {
	Success   bool          `json:"success"`
	Engine    string        `json:"engine"`
	Strategy  string        `json:"strategy"`
	Dialect   string        `json:"dialect,omitempty"`
	Lines     []string      `json:"lines"`
	Text      string        `json:"text"`
	Warning   string        `json:"warning,omitempty"`
	Error     string        `json:"error,omitempty"`
	Raw       any           `json:"raw,omitempty"`
	Attempts  []AttemptInfo `json:"attempts"`
	ImageURL  string        `json:"image_url,omitempty"`
	Duration  float64       `json:"duration"` // seconds
	SavedToDB bool          `json:"saved_to_db"`
}

// UploadResponse answers POST /api/upload/text
type UploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Preview  string `json:"preview"`
	Size     int    `json:"size"`
	FileURL  string `json:"file_url,omitempty"`
}

// Extraction is a persisted OCR run
type Extraction struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Engine     string    `json:"engine"`
	Strategy   string    `json:"strategy"`
	Dialect    string    `json:"dialect"`
	Lines      []string  `json:"lines"`
	Errors     []string  `json:"errors"`
	ImagePath  string    `json:"image_path,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
