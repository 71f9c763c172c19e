package redis

import (
	"testing"
	"time"

	"overlay-timeline-service/internal/app"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestPreviewStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewPreviewStore(client, time.Minute)

	_ = store.GetOrCreate("p1", func() *app.Preview {
		return app.NewPreview("p1", nil, nil)
	})
	if !mr.Exists("project:preview:p1") {
		t.Fatalf("expected redis key to be set")
	}

	store.DeleteIfEmpty("p1")
	if mr.Exists("project:preview:p1") {
		t.Fatalf("expected redis key to be removed")
	}
}
