package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/facturaIA/ocr-chat-service/internal/chat"
	"github.com/facturaIA/ocr-chat-service/internal/db"
	"github.com/facturaIA/ocr-chat-service/internal/logging"
	"github.com/facturaIA/ocr-chat-service/internal/models"
	"github.com/facturaIA/ocr-chat-service/internal/storage"
)

// GetMessages returns the session's conversation
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	msgs, err := s.History(r.Context())
	if err != nil {
		logging.For("api").WithError(err).Error("failed to load history")
		h.sendError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"session_id": s.ID,
		"messages":   msgs,
	})
}

// SendMessage records a user message and answers it
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.Send(r.Context(), h.responder, req.Content)
	if errors.Is(err, chat.ErrEmptyInput) {
		h.sendError(w, http.StatusBadRequest, "content is required")
		return
	}
	if err != nil {
		logging.For("api").WithError(err).Error("failed to send message")
		h.sendError(w, http.StatusInternalServerError, "failed to record message")
		return
	}

	msgs, err := s.History(r.Context())
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	sendJSON(w, http.StatusOK, models.SendMessageResponse{
		Success:  true,
		Reply:    reply.Text,
		Source:   reply.Source,
		Messages: msgs,
	})
}

// ClearMessages drops the session's conversation
func (h *Handler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.Clear(r.Context()); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to clear messages")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ResetSession clears the conversation, OCR history and archived uploads
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ctx := r.Context()
	log := logging.For("api").WithField("session", s.ID)

	if err := s.Clear(ctx); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to clear messages")
		return
	}

	if db.Enabled() {
		if err := db.DeleteExtractions(ctx, s.ID); err != nil {
			log.WithError(err).Warn("failed to delete OCR history")
		}
	}

	removed := 0
	if storage.Enabled() {
		n, err := storage.DeleteSessionObjects(ctx, s.ID)
		if err != nil {
			log.WithError(err).Warn("failed to delete archived uploads")
		}
		removed = n
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"removed_objects": removed,
	})
}

var textExtensions = map[string]bool{".txt": true, ".csv": true}

// UploadText accepts a .txt/.csv file and posts a preview to the chat
func (h *Handler) UploadText(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(h.maxUploadBytes()); err != nil {
		h.sendError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer file.Close()

	if !textExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		h.sendError(w, http.StatusBadRequest, "only .txt and .csv files are accepted")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "Error reading file: "+err.Error())
		return
	}

	preview, err := chat.PreviewText(data, h.config.Chat.PreviewChars)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "Error reading file: "+err.Error())
		return
	}

	resp := models.UploadResponse{
		Success:  true,
		Filename: filepath.Base(header.Filename),
		Preview:  preview,
		Size:     len(data),
	}

	if storage.Enabled() {
		path, err := storage.UploadSessionObject(r.Context(), s.ID, resp.Filename,
			bytes.NewReader(data), int64(len(data)), header.Header.Get("Content-Type"))
		if err != nil {
			logging.For("api").WithError(err).Warn("failed to archive upload")
		} else if url, err := storage.GetPresignedURL(r.Context(), path); err == nil {
			resp.FileURL = url
		}
	}

	if err := s.Say(r.Context(), chat.UploadMessage(preview)); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to record message")
		return
	}

	sendJSON(w, http.StatusOK, resp)
}
