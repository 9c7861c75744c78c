package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/database"
	"github.com/jonathan/interview-insights/internal/types"
)

// clickhouseConn is the subset of clickhouse.Conn the store uses.
type clickhouseConn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) driver.Row
	Close() error
}

// ClickHouse stores one row per record in the experiences table created by
// the schema migrations. Appends are serialized within the process so the
// duplicate check and the sequence stay consistent.
type ClickHouse struct {
	conn   clickhouseConn
	logger *zap.Logger

	mu sync.Mutex
}

func NewClickHouse(chdb *database.Database, logger *zap.Logger) *ClickHouse {
	return &ClickHouse{conn: chdb.Conn(), logger: logger}
}

// RowID derives a stable row UUID from an experience id.
func RowID(id string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("interview-insights:"+id))
}

func (c *ClickHouse) Append(ctx context.Context, record types.ProcessedExperience) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal experience: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var existing uint64
	if err := c.conn.QueryRow(ctx, `SELECT count() FROM experiences WHERE id = ?`, record.ID).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check experience %s: %w", record.ID, err)
	}
	if existing > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, record.ID)
	}

	var last uint64
	if err := c.conn.QueryRow(ctx, `SELECT max(seq) FROM experiences`).Scan(&last); err != nil {
		return fmt.Errorf("failed to read experience sequence: %w", err)
	}

	query := `
		INSERT INTO experiences (
			row_id, id, seq, company, role, difficulty, verdict,
			feedback_sentiment, nlp_processed, source, submitted_at, record, created_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`
	if err := c.conn.Exec(ctx, query,
		RowID(record.ID),
		record.ID,
		last+1,
		record.Company,
		record.Role,
		record.Difficulty,
		record.Verdict,
		record.FeedbackSentiment,
		record.NLPProcessed,
		record.Source,
		record.SubmittedAt,
		string(data),
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert experience %s: %w", record.ID, err)
	}

	c.logger.Debug("Stored experience in ClickHouse",
		zap.String("id", record.ID),
		zap.Uint64("seq", last+1),
	)
	return nil
}

func (c *ClickHouse) List(ctx context.Context) ([]types.ProcessedExperience, error) {
	rows, err := c.conn.Query(ctx, `SELECT record FROM experiences ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	out := []types.ProcessedExperience{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		var record types.ProcessedExperience
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to decode experience: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (c *ClickHouse) Get(ctx context.Context, id string) (types.ProcessedExperience, error) {
	var record types.ProcessedExperience

	rows, err := c.conn.Query(ctx, `SELECT record FROM experiences WHERE id = ? ORDER BY seq LIMIT 1`, id)
	if err != nil {
		return record, fmt.Errorf("failed to get experience %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return record, fmt.Errorf("failed to get experience %s: %w", id, err)
		}
		return record, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var raw string
	if err := rows.Scan(&raw); err != nil {
		return record, fmt.Errorf("failed to scan experience %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return record, fmt.Errorf("failed to decode experience %s: %w", id, err)
	}
	return record, nil
}

func (c *ClickHouse) Close() error {
	return c.conn.Close()
}
