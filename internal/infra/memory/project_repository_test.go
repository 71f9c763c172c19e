package memory

import (
	"context"
	"testing"
	"time"

	"overlay-timeline-service/internal/domain"
)

func TestProjectRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		ProjectLoader: NewStaticProjectLoader(map[string]domain.Project{
			"p1": sampleProject(),
		}),
	}
	repo := NewProjectRepository(loader, time.Minute)

	if _, err := repo.GetProject(context.Background(), "p1"); err != nil {
		t.Fatalf("get project: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetProject(context.Background(), "p1"); err != nil {
		t.Fatalf("get project 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestProjectRepositoryInvalidate(t *testing.T) {
	loader := &countingLoader{
		ProjectLoader: NewStaticProjectLoader(map[string]domain.Project{
			"p1": sampleProject(),
		}),
	}
	repo := NewProjectRepository(loader, time.Minute)

	_, _ = repo.GetProject(context.Background(), "p1")
	repo.Invalidate("p1")
	_, _ = repo.GetProject(context.Background(), "p1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d calls", loader.calls)
	}
}

func TestProjectRepositoryMissingProject(t *testing.T) {
	repo := NewProjectRepository(NewStaticProjectLoader(nil), time.Minute)
	if _, err := repo.GetProject(context.Background(), "nope"); err != domain.ErrProjectNotFound {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

type countingLoader struct {
	ProjectLoader
	calls int
}

func (l *countingLoader) LoadProject(ctx context.Context, projectID string) (domain.Project, error) {
	l.calls++
	return l.ProjectLoader.LoadProject(ctx, projectID)
}

func sampleProject() domain.Project {
	return domain.Project{
		ID: "p1",
		Elements: []domain.InteractiveElement{
			{ID: "el-1", Type: domain.TypeText, Content: "hello", Timestamp: 0, EndTime: 10, ZIndex: 1},
		},
		Timestamp: time.Now(),
	}
}
