// internal/services/export_service.go
package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
)

// ExportService renders a project's full state as a downloadable document,
// either machine-readable JSON or a Markdown production brief.
type ExportService struct {
	store   *store.Store
	scripts *ScriptService
}

// ProjectExport is the JSON export shape.
type ProjectExport struct {
	Project    models.Project            `json:"project"`
	Articles   []models.NewsArticle      `json:"articles,omitempty"`
	Strategies []models.CreativeStrategy `json:"strategies,omitempty"`
	Scripts    []ScriptPackage           `json:"scripts,omitempty"`
	Notes      []models.DirectorNote     `json:"director_notes,omitempty"`
	ExportedAt time.Time                 `json:"exported_at"`
}

func NewExportService(s *store.Store, scripts *ScriptService) *ExportService {
	return &ExportService{store: s, scripts: scripts}
}

func (es *ExportService) buildExport(projectID string) (*ProjectExport, error) {
	project, err := es.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	export := &ProjectExport{
		Project:    *project,
		Articles:   es.store.ListArticles(projectID),
		Strategies: es.store.ListStrategies(projectID),
		Notes:      es.store.ListDirectorNotes(projectID),
		ExportedAt: time.Now(),
	}
	for _, script := range es.store.ListScripts(projectID) {
		pkg, err := es.scripts.GetScriptPackage(script.ID)
		if err != nil {
			return nil, err
		}
		export.Scripts = append(export.Scripts, *pkg)
	}
	return export, nil
}

// ExportJSON renders the project as indented JSON.
func (es *ExportService) ExportJSON(projectID string) ([]byte, error) {
	export, err := es.buildExport(projectID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(export, "", "  ")
}

// ExportMarkdown renders the project as a production brief.
func (es *ExportService) ExportMarkdown(projectID string) ([]byte, error) {
	export, err := es.buildExport(projectID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	p := export.Project
	sb.WriteString("# " + p.Name + "\n\n")
	if p.Description != "" {
		sb.WriteString(p.Description + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("- Status: %s\n", p.Status))
	if p.Format != "" {
		sb.WriteString(fmt.Sprintf("- Format: %s\n", p.Format))
	}
	if p.Lens != "" {
		sb.WriteString(fmt.Sprintf("- Satirical lens: %s\n", p.Lens))
	}
	sb.WriteString(fmt.Sprintf("- Exported: %s\n\n", export.ExportedAt.Format(time.RFC3339)))

	if len(export.Articles) > 0 {
		sb.WriteString("## Source articles\n\n")
		for _, a := range export.Articles {
			sb.WriteString(fmt.Sprintf("### %s\n\n", a.Title))
			if a.Source != "" {
				sb.WriteString(fmt.Sprintf("Source: %s\n\n", a.Source))
			}
			sb.WriteString(a.Content + "\n\n")
		}
	}

	if len(export.Strategies) > 0 {
		sb.WriteString("## Creative strategy\n\n")
		for _, st := range export.Strategies {
			sb.WriteString(fmt.Sprintf("### %s (v%d, %s)\n\n", st.Concept, st.Version, st.Status))
			if len(st.SatiricalAngles) > 0 {
				sb.WriteString("Angles:\n")
				for _, angle := range st.SatiricalAngles {
					sb.WriteString("- " + angle + "\n")
				}
				sb.WriteString("\n")
			}
			if len(st.Archetypes) > 0 {
				sb.WriteString("Archetypes:\n")
				for _, arch := range st.Archetypes {
					sb.WriteString("- " + arch + "\n")
				}
				sb.WriteString("\n")
			}
			if st.VisualStyle != "" {
				sb.WriteString("Visual style: " + st.VisualStyle + "\n\n")
			}
		}
	}

	for _, pkg := range export.Scripts {
		sb.WriteString(fmt.Sprintf("## Script: %s\n\n", pkg.Script.Title))
		if pkg.Script.Logline != "" {
			sb.WriteString("*" + pkg.Script.Logline + "*\n\n")
		}
		for _, detail := range pkg.Shots {
			shot := detail.Shot
			sb.WriteString(fmt.Sprintf("### Shot %d (%.1fs)\n\n", shot.PanelNumber, shot.LengthSeconds))
			if shot.Camera != "" {
				sb.WriteString("- Camera: " + shot.Camera + "\n")
			}
			if shot.Visual != "" {
				sb.WriteString("- Visual: " + shot.Visual + "\n")
			}
			if shot.Action != "" {
				sb.WriteString("- Action: " + shot.Action + "\n")
			}
			if shot.Lighting != "" {
				sb.WriteString("- Lighting: " + shot.Lighting + "\n")
			}
			if detail.SoundNotes != nil {
				n := detail.SoundNotes
				if n.Ambience != "" {
					sb.WriteString("- Ambience: " + n.Ambience + "\n")
				}
				if n.Effects != "" {
					sb.WriteString("- Effects: " + n.Effects + "\n")
				}
				if n.Music != "" {
					sb.WriteString("- Music: " + n.Music + "\n")
				}
			}
			sb.WriteString("\n")
		}
	}

	if len(export.Notes) > 0 {
		sb.WriteString("## Director notes\n\n")
		for _, note := range export.Notes {
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", note.Stage, note.Content))
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}
