package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/facturaIA/ocr-chat-service/internal/models"
)

// DefaultPreviewChars is the length of an uploaded file preview
const DefaultPreviewChars = 500

// ErrNotUTF8 is returned for uploads that are not valid UTF-8 text
var ErrNotUTF8 = errors.New("file is not valid UTF-8 text")

// Session is one conversation: an ID bound to a message store
type Session struct {
	ID    string
	store Store
}

// NewSession binds id to store
func NewSession(id string, store Store) *Session {
	return &Session{ID: id, store: store}
}

// History returns the conversation in order
func (s *Session) History(ctx context.Context) ([]models.Message, error) {
	return s.store.Messages(ctx, s.ID)
}

// Send records the user's message and the responder's reply. Blank input
// records nothing.
func (s *Session) Send(ctx context.Context, r *Responder, input string) (Reply, error) {
	if strings.TrimSpace(input) == "" {
		return Reply{}, ErrEmptyInput
	}
	if _, err := s.store.Append(ctx, s.ID, models.Message{Role: models.RoleUser, Content: input}); err != nil {
		return Reply{}, fmt.Errorf("store user message: %w", err)
	}

	reply, err := r.Respond(ctx, input)
	if err != nil {
		return Reply{}, err
	}

	if err := s.Say(ctx, reply.Text); err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// Say appends an assistant message
func (s *Session) Say(ctx context.Context, content string) error {
	if _, err := s.store.Append(ctx, s.ID, models.Message{Role: models.RoleAssistant, Content: content}); err != nil {
		return fmt.Errorf("store assistant message: %w", err)
	}
	return nil
}

// Clear drops the conversation
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.ID)
}

// OCRMessage renders the assistant message for an OCR run
func OCRMessage(lines []string) string {
	if len(lines) == 0 {
		return "OCR Result: [no readable text]"
	}
	return "OCR Result:\n" + strings.Join(lines, "\n")
}

// UploadMessage renders the assistant message for an uploaded text file
func UploadMessage(preview string) string {
	return "File uploaded. Preview:\n" + preview + "..."
}

// PreviewText decodes data as UTF-8 and returns its first n characters
func PreviewText(data []byte, n int) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrNotUTF8
	}
	if n <= 0 {
		n = DefaultPreviewChars
	}
	text := string(data)
	if utf8.RuneCountInString(text) <= n {
		return text, nil
	}
	runes := []rune(text)
	return string(runes[:n]), nil
}
