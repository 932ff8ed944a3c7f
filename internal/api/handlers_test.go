// internal/api/handlers_test.go
package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/satireworks/greenroom/internal/services"
	"github.com/satireworks/greenroom/internal/store"
)

func newUploadFixture(t *testing.T) (*gin.Engine, *Handler, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewInMemory()
	h := &Handler{
		ProjectService: services.NewProjectService(s, services.NewContextService(s)),
		ArticleService: services.NewArticleService(s),
		Response:       NewResponseHelper(),
	}

	project, err := h.ProjectService.CreateProject(services.CreateProjectRequest{Name: "Cones"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	r := gin.New()
	r.POST("/api/projects/:id/articles/upload", h.UploadArticle)
	return r, h, project.ID
}

func multipartUpload(t *testing.T, content []byte, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	w.WriteField("title", "Uploaded story")
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestUploadArticleStoresWholeFile(t *testing.T) {
	r, h, projectID := newUploadFixture(t)

	// Large enough that a single short read would truncate it.
	content := bytes.Repeat([]byte("the council bans weather again. "), 2048)
	body, contentType := multipartUpload(t, content, "story.txt")

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/articles/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	articles := h.ArticleService.ListArticles(projectID)
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if got := articles[0].Content; got != string(content) {
		t.Errorf("stored content length = %d, want %d", len(got), len(content))
	}
	if articles[0].FileName != "story.txt" {
		t.Errorf("file name = %q, want story.txt", articles[0].FileName)
	}
}

func TestUploadArticleRejectsOversizedFile(t *testing.T) {
	r, h, projectID := newUploadFixture(t)

	body, contentType := multipartUpload(t, make([]byte, 2<<20+1), "big.txt")

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/articles/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := len(h.ArticleService.ListArticles(projectID)); got != 0 {
		t.Errorf("expected no stored articles, got %d", got)
	}
}
