// internal/models/article.go
package models

import (
	"time"
)

// NewsArticle is the raw source material a project is built on.
type NewsArticle struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	URL       string    `json:"url,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
