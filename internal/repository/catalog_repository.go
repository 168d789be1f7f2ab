package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-directory-api/internal/models"
)

// BatchRepository looks up intake batches.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository creates a new instance of BatchRepository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// FindByTitle returns the batch with the given title.
func (r *BatchRepository) FindByTitle(ctx context.Context, title string) (*models.Batch, error) {
	const query = `SELECT id, title, session FROM batches WHERE title = $1 ORDER BY id LIMIT 1`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find batch by title: %w", err)
	}
	return &batch, nil
}

// ProgramRepository looks up academic programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository creates a new instance of ProgramRepository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// FindByName returns the program with the given name.
func (r *ProgramRepository) FindByName(ctx context.Context, name string) (*models.Program, error) {
	const query = `SELECT id, name FROM programs WHERE name = $1 ORDER BY id LIMIT 1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find program by name: %w", err)
	}
	return &program, nil
}
