package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/facturaIA/ocr-chat-service/internal/models"
)

// SaveExtraction records an OCR run and fills its ID and CreatedAt
func SaveExtraction(ctx context.Context, ex *models.Extraction) error {
	if Pool == nil {
		return ErrNoPool
	}

	lines := ex.Lines
	if lines == nil {
		lines = []string{}
	}
	errs := ex.Errors
	if errs == nil {
		errs = []string{}
	}

	var id uuid.UUID
	err := Pool.QueryRow(ctx, `
		INSERT INTO ocr_extractions (
			session_id, engine, strategy, dialect, lines, errors, image_path, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, ex.SessionID, ex.Engine, ex.Strategy, ex.Dialect, lines, errs, ex.ImagePath, ex.DurationMS,
	).Scan(&id, &ex.CreatedAt)
	if err != nil {
		return err
	}
	ex.ID = id.String()
	return nil
}

// GetExtractions lists a session's OCR runs, newest first
func GetExtractions(ctx context.Context, sessionID string, limit int) ([]models.Extraction, error) {
	if Pool == nil {
		return nil, ErrNoPool
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := Pool.Query(ctx, `
		SELECT id, session_id, engine, strategy, dialect, lines, errors, image_path, duration_ms, created_at
		FROM ocr_extractions
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Extraction{}
	for rows.Next() {
		var (
			ex models.Extraction
			id uuid.UUID
		)
		err := rows.Scan(&id, &ex.SessionID, &ex.Engine, &ex.Strategy, &ex.Dialect,
			&ex.Lines, &ex.Errors, &ex.ImagePath, &ex.DurationMS, &ex.CreatedAt)
		if err != nil {
			return nil, err
		}
		ex.ID = id.String()
		out = append(out, ex)
	}
	return out, rows.Err()
}

// DeleteExtractions removes a session's OCR runs
func DeleteExtractions(ctx context.Context, sessionID string) error {
	if Pool == nil {
		return ErrNoPool
	}
	_, err := Pool.Exec(ctx, `DELETE FROM ocr_extractions WHERE session_id = $1`, sessionID)
	return err
}
