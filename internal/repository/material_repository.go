package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// MaterialRepository handles persistence for learning materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository creates a new repository instance.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// FindByID returns a material by id.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	const query = `SELECT id, unit_id, title, file_url, uploaded_by, created_at, updated_at FROM materials WHERE id = $1`
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// ListByUnit returns a unit's materials, newest first, with the uploader
// name joined when the uploader account still exists.
func (r *MaterialRepository) ListByUnit(ctx context.Context, unitID string) ([]models.MaterialDetail, error) {
	const query = `SELECT m.id, m.unit_id, m.title, m.file_url, m.uploaded_by, m.created_at, m.updated_at, u.name AS uploader_name
FROM materials m
LEFT JOIN users u ON u.id = m.uploaded_by
WHERE m.unit_id = $1
ORDER BY m.created_at DESC`
	var materials []models.MaterialDetail
	if err := r.db.SelectContext(ctx, &materials, query, unitID); err != nil {
		return nil, fmt.Errorf("list materials of unit: %w", err)
	}
	return materials, nil
}

// Create persists a new material.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if material.CreatedAt.IsZero() {
		material.CreatedAt = now
	}
	material.UpdatedAt = now

	const query = `INSERT INTO materials (id, unit_id, title, file_url, uploaded_by, created_at, updated_at)
VALUES (:id, :unit_id, :title, :file_url, :uploaded_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// Delete removes a material row.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM materials WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}
