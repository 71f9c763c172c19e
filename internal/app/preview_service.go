package app

import (
	"context"
	"log"
	"time"

	"overlay-timeline-service/internal/domain"
)

// PreviewRepository abstracts how live previews are tracked (in-memory,
// Redis-marked, etc).
type PreviewRepository interface {
	GetOrCreate(projectID string, build func() *Preview) *Preview
	Get(projectID string) (*Preview, bool)
	DeleteIfEmpty(projectID string)
}

// ProjectRepository loads project content (from cache/backing store).
type ProjectRepository interface {
	GetProject(ctx context.Context, projectID string) (domain.Project, error)
}

// PreviewService contains the preview/editing use cases.
type PreviewService struct {
	previews PreviewRepository
	projects ProjectRepository
	saver    ProjectSaver
	autosave time.Duration
}

func NewPreviewService(previews PreviewRepository, projects ProjectRepository, saver ProjectSaver, autosave time.Duration) *PreviewService {
	return &PreviewService{previews: previews, projects: projects, saver: saver, autosave: autosave}
}

// Open joins (or starts) the preview for a project and returns it with the
// current frame. Unknown projects load as empty element lists: the editor
// must stay usable when storage has nothing or is unreadable.
func (s *PreviewService) Open(ctx context.Context, projectID string) (*Preview, Frame) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		log.Printf("load project %s: %v (starting empty)", projectID, err)
		project = domain.Project{ID: projectID}
	}

	preview := s.previews.GetOrCreate(projectID, func() *Preview {
		created := NewPreview(projectID, project.Elements, s.saver)
		if s.autosave > 0 {
			created.StartAutosave(s.autosave)
		}
		return created
	})
	return preview, preview.Join()
}

// Leave drops a viewer, flushes unsaved edits, and discards the preview
// when nobody is watching.
func (s *PreviewService) Leave(ctx context.Context, projectID string) {
	preview, ok := s.previews.Get(projectID)
	if !ok {
		return
	}
	preview.Leave()
	if preview.IsEmpty() {
		preview.StopAutosave()
		preview.Flush(ctx)
		s.previews.DeleteIfEmpty(projectID)
	}
}
