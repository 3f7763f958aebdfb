package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of the Repository interface
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the workflows table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS workflows (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			definition JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure workflows table: %w", err)
	}
	return nil
}

// List returns all stored workflows
func (r *PostgresRepository) List(ctx context.Context) ([]*Workflow, error) {
	rows, err := r.db.Query(ctx, "SELECT id, name, description, definition, created_at, updated_at FROM workflows ORDER BY updated_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}

	return workflows, rows.Err()
}

// Get retrieves a workflow by its ID
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Workflow, error) {
	row := r.db.QueryRow(ctx, "SELECT id, name, description, definition, created_at, updated_at FROM workflows WHERE id = $1", id)

	wf, err := scanWorkflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return wf, nil
}

// Save creates or updates a workflow
func (r *PostgresRepository) Save(ctx context.Context, wf *Workflow) error {
	definition, err := json.Marshal(wf.Definition)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	now := time.Now()
	if wf.CreatedAt.IsZero() {
		wf.CreatedAt = now
	}
	wf.UpdatedAt = now

	_, err = r.db.Exec(ctx, `
		INSERT INTO workflows (id, name, description, definition, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			definition = EXCLUDED.definition,
			updated_at = EXCLUDED.updated_at`,
		wf.ID, wf.Name, wf.Description, definition, wf.CreatedAt, wf.UpdatedAt)
	return err
}

// Delete removes a workflow by its ID
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanWorkflow reads one workflow row, decoding the JSONB definition
func scanWorkflow(row pgx.Row) (*Workflow, error) {
	var wf Workflow
	var definition []byte
	if err := row.Scan(&wf.ID, &wf.Name, &wf.Description, &definition, &wf.CreatedAt, &wf.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(definition, &wf.Definition); err != nil {
		return nil, fmt.Errorf("failed to decode workflow definition: %w", err)
	}
	return &wf, nil
}

var _ Repository = (*PostgresRepository)(nil)
