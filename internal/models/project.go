// Package models defines core data structures for projects, documents, QA pairs, and search.
package models

import "time"

// Project is a named, user-created grouping of documents with an isolated search index.
// Names are unique across the store.
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	// DocumentCount is a live aggregate computed at query time, never cached.
	DocumentCount int `json:"document_count" db:"-"`
}

// ProjectInput is the input for creating a project.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
