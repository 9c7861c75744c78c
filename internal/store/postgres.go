package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/interview-insights/internal/db"
	"github.com/jonathan/interview-insights/internal/types"
)

// Postgres stores records as JSONB rows ordered by a sequence.
type Postgres struct {
	db *db.DB
}

func NewPostgres(conn *db.DB) *Postgres {
	return &Postgres{db: conn}
}

func (p *Postgres) Append(ctx context.Context, record types.ProcessedExperience) error {
	err := p.db.InsertExperience(ctx, record)
	if errors.Is(err, db.ErrDuplicate) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, record.ID)
	}
	return err
}

func (p *Postgres) List(ctx context.Context) ([]types.ProcessedExperience, error) {
	return p.db.ListExperiences(ctx)
}

func (p *Postgres) Get(ctx context.Context, id string) (types.ProcessedExperience, error) {
	record, err := p.db.GetExperience(ctx, id)
	if err != nil {
		return types.ProcessedExperience{}, err
	}
	if record == nil {
		return types.ProcessedExperience{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *record, nil
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}
