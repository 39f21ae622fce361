package models

import "time"

// Material is a learning resource attached to a unit. The file itself is
// stored elsewhere; only the URL is kept here.
type Material struct {
	ID         string    `db:"id" json:"id"`
	UnitID     string    `db:"unit_id" json:"unit_id"`
	Title      string    `db:"title" json:"title"`
	FileURL    string    `db:"file_url" json:"file_url"`
	UploadedBy *string   `db:"uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// MaterialDetail joins the uploader's display name when still resolvable.
type MaterialDetail struct {
	Material
	UploaderName *string `db:"uploader_name" json:"uploader_name,omitempty"`
}
