package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/facturaIA/ocr-chat-service/internal/chat"
	"github.com/facturaIA/ocr-chat-service/internal/db"
	"github.com/facturaIA/ocr-chat-service/internal/logging"
	"github.com/facturaIA/ocr-chat-service/internal/models"
	"github.com/facturaIA/ocr-chat-service/internal/ocr"
	"github.com/facturaIA/ocr-chat-service/internal/storage"
)

// ExtractText runs OCR on an uploaded image and posts the lines to the chat
func (h *Handler) ExtractText(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ctx := r.Context()
	log := logging.For("api").WithField("session", s.ID)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(h.maxUploadBytes()); err != nil {
		h.sendError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := formImage(r)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	if !ocr.IsSupportedImage(header.Filename) {
		h.sendError(w, http.StatusBadRequest, "only .jpg, .jpeg and .png images are accepted")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	img, err := ocr.DecodeRGB(bytes.NewReader(data))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("invalid image: %v", err))
		return
	}

	if err := h.ocrSem.Acquire(ctx, 1); err != nil {
		h.sendError(w, http.StatusServiceUnavailable, "OCR at capacity")
		return
	}
	result := h.extractor.Extract(ctx, img)
	h.ocrSem.Release(1)

	resp := models.OCRResponse{
		Success:  result.OK(),
		Engine:   result.Engine,
		Strategy: result.Strategy,
		Dialect:  string(result.Dialect),
		Lines:    result.Lines,
		Text:     result.Text(),
		Attempts: attemptInfos(result.Attempts),
		Duration: result.Duration.Seconds(),
	}

	errs := result.Errors()
	errStrings := make([]string, 0, len(errs))
	for _, e := range errs {
		errStrings = append(errStrings, e.Error())
	}

	log.WithFields(logrus.Fields{
		"engine":   result.Engine,
		"strategy": result.Strategy,
		"lines":    len(result.Lines),
		"errors":   len(errs),
	}).Info("OCR finished")

	var imagePath string
	if storage.Enabled() {
		name := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
		path, err := storage.UploadSessionObject(ctx, s.ID, name,
			bytes.NewReader(data), int64(len(data)), header.Header.Get("Content-Type"))
		if err != nil {
			log.WithError(err).Warn("failed to archive image")
		} else {
			imagePath = path
			if url, err := storage.GetPresignedURL(ctx, path); err == nil {
				resp.ImageURL = url
			}
		}
	}

	switch {
	case !result.OK():
		resp.Error = "OCR failed with every invocation strategy"
		resp.Warning = strings.Join(errStrings, "\n")
	case len(result.Lines) == 0:
		resp.Warning = "No readable text detected. Raw OCR result included for debugging."
		resp.Raw = result.Raw
	}

	if result.OK() {
		if err := s.Say(ctx, chat.OCRMessage(result.Lines)); err != nil {
			h.sendError(w, http.StatusInternalServerError, "failed to record message")
			return
		}
	}

	if db.Enabled() {
		resp.SavedToDB = h.saveExtraction(ctx, newExtraction(s.ID, result, errStrings, imagePath)) == nil
	}

	sendJSON(w, http.StatusOK, resp)
}

// GetExtractions lists persisted OCR runs for the session
func (h *Handler) GetExtractions(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !db.Enabled() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	extractions, err := db.GetExtractions(r.Context(), s.ID, limit)
	if err != nil {
		logging.For("api").WithError(err).Error("failed to load extractions")
		h.sendError(w, http.StatusInternalServerError, "failed to load extractions")
		return
	}

	if storage.Enabled() {
		presignImages(r.Context(), extractions, storage.GetPresignedURL)
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"extractions": extractions,
		"count":       len(extractions),
	})
}

// newExtraction builds the history record; imagePath is the stored
// "bucket/object" path, never a presigned URL.
func newExtraction(sessionID string, result ocr.Extraction, errs []string, imagePath string) *models.Extraction {
	return &models.Extraction{
		SessionID:  sessionID,
		Engine:     result.Engine,
		Strategy:   result.Strategy,
		Dialect:    string(result.Dialect),
		Lines:      result.Lines,
		Errors:     errs,
		ImagePath:  imagePath,
		DurationMS: result.Duration.Milliseconds(),
	}
}

// presignImages fills ImageURL from ImagePath at read time
func presignImages(ctx context.Context, extractions []models.Extraction, presign func(context.Context, string) (string, error)) {
	for i := range extractions {
		if extractions[i].ImagePath == "" {
			continue
		}
		url, err := presign(ctx, extractions[i].ImagePath)
		if err != nil {
			logging.For("api").WithError(err).WithField("path", extractions[i].ImagePath).Warn("failed to presign image")
			continue
		}
		extractions[i].ImageURL = url
	}
}

func (h *Handler) saveExtraction(ctx context.Context, ex *models.Extraction) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.SaveExtraction(ctx, ex); err != nil {
		logging.For("api").WithError(err).Warn("failed to save extraction")
		return err
	}
	return nil
}

// formImage accepts the image under "image" or "file"
func formImage(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range []string{"image", "file"} {
		file, header, err := r.FormFile(field)
		if err == nil {
			return file, header, nil
		}
	}
	return nil, nil, fmt.Errorf("missing 'image' field")
}

func attemptInfos(attempts []ocr.Attempt) []models.AttemptInfo {
	out := make([]models.AttemptInfo, 0, len(attempts))
	for _, a := range attempts {
		info := models.AttemptInfo{
			Strategy:   a.Strategy,
			Skipped:    a.Skipped,
			DurationMS: a.Duration.Milliseconds(),
		}
		if a.Err != nil {
			info.Error = a.Err.Error()
		}
		out = append(out, info)
	}
	return out
}
