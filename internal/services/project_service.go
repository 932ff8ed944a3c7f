// internal/services/project_service.go
package services

import (
	"strings"

	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
	"github.com/satireworks/greenroom/internal/utils"
)

// ProjectService owns project lifecycle: creation, persona assignment,
// status transitions and the cascade delete.
type ProjectService struct {
	store   *store.Store
	context *ContextService
	logger  *utils.Logger
}

// CreateProjectRequest is the shape accepted from the API layer.
type CreateProjectRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	OwnerID     string                 `json:"owner_id"`
	Personas    []string               `json:"personas"`
	Lens        string                 `json:"lens"`
	Format      models.SatiricalFormat `json:"format"`
}

func NewProjectService(s *store.Store, cs *ContextService) *ProjectService {
	return &ProjectService{
		store:   s,
		context: cs,
		logger:  utils.GetLogger(),
	}
}

func (ps *ProjectService) CreateProject(req CreateProjectRequest) (*models.Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewValidationError("project name is required", nil)
	}
	if req.Format != "" && !validFormat(req.Format) {
		return nil, apperrors.NewValidationError("unknown satirical format: "+string(req.Format), nil)
	}

	personas := req.Personas
	if len(personas) == 0 {
		// Every project gets the full studio by default.
		for _, p := range ListPersonas() {
			personas = append(personas, p.ID)
		}
	} else {
		for _, id := range personas {
			if !IsPersona(id) {
				return nil, apperrors.NewValidationError("unknown persona: "+id, nil)
			}
		}
	}

	project := &models.Project{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		OwnerID:     req.OwnerID,
		Personas:    personas,
		Lens:        req.Lens,
		Format:      req.Format,
	}
	if err := ps.store.CreateProject(project); err != nil {
		return nil, err
	}

	ps.logger.Info("project created", map[string]interface{}{
		"project_id": project.ID,
		"name":       project.Name,
	})
	return project, nil
}

func (ps *ProjectService) GetProject(id string) (*models.Project, error) {
	return ps.store.GetProject(id)
}

func (ps *ProjectService) ListProjects() []models.Project {
	return ps.store.ListProjects()
}

// UpdateProject applies mutable fields only; identity and audit fields on
// the stored record win.
func (ps *ProjectService) UpdateProject(id string, req CreateProjectRequest) (*models.Project, error) {
	project, err := ps.store.GetProject(id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Name) != "" {
		project.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Lens != "" {
		project.Lens = req.Lens
	}
	if req.Format != "" {
		if !validFormat(req.Format) {
			return nil, apperrors.NewValidationError("unknown satirical format: "+string(req.Format), nil)
		}
		project.Format = req.Format
	}
	if len(req.Personas) > 0 {
		for _, pid := range req.Personas {
			if !IsPersona(pid) {
				return nil, apperrors.NewValidationError("unknown persona: "+pid, nil)
			}
		}
		project.Personas = req.Personas
	}

	if err := ps.store.UpdateProject(project); err != nil {
		return nil, err
	}
	return project, nil
}

// SetStatus moves a project through its lifecycle.
func (ps *ProjectService) SetStatus(id string, status models.ProjectStatus) (*models.Project, error) {
	switch status {
	case models.ProjectActive, models.ProjectCompleted, models.ProjectArchived:
	default:
		return nil, apperrors.NewValidationError("unknown project status: "+string(status), nil)
	}

	project, err := ps.store.GetProject(id)
	if err != nil {
		return nil, err
	}
	project.Status = status
	if err := ps.store.UpdateProject(project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject cascades through the datastore and drops the context
// tracker's state for the project.
func (ps *ProjectService) DeleteProject(id string) error {
	if err := ps.store.DeleteProject(id); err != nil {
		return err
	}
	if ps.context != nil {
		ps.context.ForgetProject(id)
	}
	ps.logger.Info("project deleted", map[string]interface{}{"project_id": id})
	return nil
}

func validFormat(format models.SatiricalFormat) bool {
	switch format {
	case models.FormatNewsParody, models.FormatMockumentary, models.FormatSketchComedy,
		models.FormatExplainer, models.FormatInfomercial:
		return true
	}
	return false
}
