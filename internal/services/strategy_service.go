// internal/services/strategy_service.go
package services

import (
	"strings"

	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
)

// StrategyService manages creative strategies. Updates bump the version
// counter in the store; status moves through a small review loop.
type StrategyService struct {
	store *store.Store
}

type StrategyRequest struct {
	Concept         string   `json:"concept"`
	SatiricalAngles []string `json:"satirical_angles"`
	Archetypes      []string `json:"archetypes"`
	VisualStyle     string   `json:"visual_style"`
}

func NewStrategyService(s *store.Store) *StrategyService {
	return &StrategyService{store: s}
}

func (ss *StrategyService) CreateStrategy(projectID string, req StrategyRequest) (*models.CreativeStrategy, error) {
	if _, err := ss.store.GetProject(projectID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Concept) == "" {
		return nil, apperrors.NewValidationError("strategy concept is required", nil)
	}

	strategy := &models.CreativeStrategy{
		ProjectID:       projectID,
		Concept:         req.Concept,
		SatiricalAngles: req.SatiricalAngles,
		Archetypes:      req.Archetypes,
		VisualStyle:     req.VisualStyle,
	}
	if err := ss.store.CreateStrategy(strategy); err != nil {
		return nil, err
	}
	return strategy, nil
}

func (ss *StrategyService) GetStrategy(id string) (*models.CreativeStrategy, error) {
	return ss.store.GetStrategy(id)
}

func (ss *StrategyService) ListStrategies(projectID string) []models.CreativeStrategy {
	return ss.store.ListStrategies(projectID)
}

// UpdateStrategy edits content fields. Every successful update advances the
// version by one regardless of how small the edit was.
func (ss *StrategyService) UpdateStrategy(id string, req StrategyRequest) (*models.CreativeStrategy, error) {
	strategy, err := ss.store.GetStrategy(id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Concept) != "" {
		strategy.Concept = req.Concept
	}
	if req.SatiricalAngles != nil {
		strategy.SatiricalAngles = req.SatiricalAngles
	}
	if req.Archetypes != nil {
		strategy.Archetypes = req.Archetypes
	}
	if req.VisualStyle != "" {
		strategy.VisualStyle = req.VisualStyle
	}

	if err := ss.store.UpdateStrategy(strategy); err != nil {
		return nil, err
	}
	return strategy, nil
}

// SetStatus moves a strategy through the review loop.
func (ss *StrategyService) SetStatus(id string, status models.StrategyStatus) (*models.CreativeStrategy, error) {
	switch status {
	case models.StrategyDraft, models.StrategyInReview, models.StrategyApproved, models.StrategyNeedsRevision:
	default:
		return nil, apperrors.NewValidationError("unknown strategy status: "+string(status), nil)
	}

	strategy, err := ss.store.GetStrategy(id)
	if err != nil {
		return nil, err
	}
	strategy.Status = status
	if err := ss.store.UpdateStrategy(strategy); err != nil {
		return nil, err
	}
	return strategy, nil
}

func (ss *StrategyService) DeleteStrategy(id string) error {
	return ss.store.DeleteStrategy(id)
}
