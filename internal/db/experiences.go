package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/interview-insights/internal/types"
)

// ErrDuplicate is returned when an experience id already exists.
var ErrDuplicate = errors.New("experience already exists")

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Row is the indexed projection of a stored experience.
type Row struct {
	Seq               int64
	ID                string
	Company           string
	Role              string
	Difficulty        string
	Verdict           string
	FeedbackSentiment string
	NLPProcessed      bool
	Source            string
	SubmittedAt       string
	Record            []byte
}

// NewRow projects record into a Row with its JSON encoding.
func NewRow(record types.ProcessedExperience) (Row, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return Row{}, fmt.Errorf("failed to marshal experience: %w", err)
	}
	return Row{
		ID:                record.ID,
		Company:           record.Company,
		Role:              record.Role,
		Difficulty:        record.Difficulty,
		Verdict:           record.Verdict,
		FeedbackSentiment: record.FeedbackSentiment,
		NLPProcessed:      record.NLPProcessed,
		Source:            record.Source,
		SubmittedAt:       record.SubmittedAt,
		Record:            data,
	}, nil
}

// Experience decodes the stored record.
func (r Row) Experience() (types.ProcessedExperience, error) {
	var record types.ProcessedExperience
	if err := json.Unmarshal(r.Record, &record); err != nil {
		return record, fmt.Errorf("failed to decode experience %s: %w", r.ID, err)
	}
	return record, nil
}

// InsertExperience appends record. A duplicate id returns ErrDuplicate.
func (db *DB) InsertExperience(ctx context.Context, record types.ProcessedExperience) error {
	row, err := NewRow(record)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO experiences (id, company, role, difficulty, verdict, feedback_sentiment,
		                          nlp_processed, source, submitted_at, record)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		row.ID, row.Company, row.Role, row.Difficulty, row.Verdict, row.FeedbackSentiment,
		row.NLPProcessed, row.Source, row.SubmittedAt, row.Record,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicate, record.ID)
		}
		return fmt.Errorf("failed to insert experience %s: %w", record.ID, err)
	}
	return nil
}

// ListExperiences returns every experience in insertion order.
func (db *DB) ListExperiences(ctx context.Context) ([]types.ProcessedExperience, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, record FROM experiences ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	out := []types.ProcessedExperience{}
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.Record); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		record, err := row.Experience()
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate experiences: %w", err)
	}
	return out, nil
}

// GetExperience returns the experience with id, or nil when none exists.
func (db *DB) GetExperience(ctx context.Context, id string) (*types.ProcessedExperience, error) {
	row := Row{ID: id}
	err := db.pool.QueryRow(ctx, `SELECT record FROM experiences WHERE id = $1`, id).Scan(&row.Record)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get experience %s: %w", id, err)
	}
	record, err := row.Experience()
	if err != nil {
		return nil, err
	}
	return &record, nil
}
