// internal/services/article_service.go
package services

import (
	"strings"

	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
)

// ArticleService manages the news articles a project satirizes. Articles
// arrive either pasted as text or uploaded as a file; both end up as the
// same record.
type ArticleService struct {
	store *store.Store
}

type CreateArticleRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

func NewArticleService(s *store.Store) *ArticleService {
	return &ArticleService{store: s}
}

func (as *ArticleService) AddArticle(projectID string, req CreateArticleRequest) (*models.NewsArticle, error) {
	if _, err := as.store.GetProject(projectID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperrors.NewValidationError("article content is required", nil)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		// Fall back to the first line of the content.
		firstLine := strings.SplitN(strings.TrimSpace(req.Content), "\n", 2)[0]
		if len(firstLine) > 120 {
			firstLine = firstLine[:120]
		}
		title = firstLine
	}

	article := &models.NewsArticle{
		ProjectID: projectID,
		Title:     title,
		Content:   req.Content,
		Source:    req.Source,
		URL:       req.URL,
		FileName:  req.FileName,
	}
	if err := as.store.CreateArticle(article); err != nil {
		return nil, err
	}
	return article, nil
}

func (as *ArticleService) GetArticle(id string) (*models.NewsArticle, error) {
	return as.store.GetArticle(id)
}

func (as *ArticleService) ListArticles(projectID string) []models.NewsArticle {
	return as.store.ListArticles(projectID)
}

func (as *ArticleService) DeleteArticle(id string) error {
	return as.store.DeleteArticle(id)
}
