package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cloudtodo/core/internal/domain/entities"
	"github.com/cloudtodo/core/internal/infrastructure/config"
	"github.com/cloudtodo/core/internal/infrastructure/database"
	"github.com/cloudtodo/core/internal/ports"
)

func sampleRecord(userID string) *entities.UserRecord {
	due := time.Date(2024, 1, 11, 18, 0, 0, 0, time.UTC)
	rec := entities.NewUserRecord(userID)
	rec.Tasks = []entities.Task{
		{
			ID: "01HKZ0000000000000000000A1", Content: "Buy milk", Priority: 2,
			Created: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), DueDate: &due,
			Tags:     []string{"home"},
			Reminder: &entities.Reminder{Time: due.Add(-30 * time.Minute), Message: "soon"},
		},
		{
			ID: "01HKZ0000000000000000000A2", Content: "Write report", Priority: 3,
			Created: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), Completed: true, Tags: []string{},
		},
	}
	rec.Settings.Timezone = "Asia/Shanghai"
	rec.IndexMap = entities.DisplayIndex{1: 1, 2: 0}
	return rec
}

// exerciseRepository runs the behavior every store must share.
func exerciseRepository(t *testing.T, repo ports.UserRecordRepository) {
	t.Helper()
	ctx := context.Background()

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := repo.Get(ctx, "nobody"); !errors.Is(err, entities.ErrRecordNotFound) {
		t.Fatalf("Get on missing user error = %v, want ErrRecordNotFound", err)
	}

	rec := sampleRecord("42")
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, "42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != "42" || len(got.Tasks) != 2 || got.Settings.Timezone != "Asia/Shanghai" {
		t.Fatalf("unexpected record: %+v", got)
	}
	first := got.Tasks[0]
	if first.DueDate == nil || !first.DueDate.Equal(*rec.Tasks[0].DueDate) ||
		first.Reminder == nil || first.Reminder.Message != "soon" || first.Tags[0] != "home" {
		t.Fatalf("task not preserved: %+v", first)
	}
	if got.IndexMap[1] != 1 || got.IndexMap[2] != 0 {
		t.Fatalf("index not preserved: %v", got.IndexMap)
	}

	// Whole-record overwrite
	got.Tasks = got.Tasks[:1]
	got.Invalidate()
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	again, err := repo.Get(ctx, "42")
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if len(again.Tasks) != 1 {
		t.Fatalf("got %d tasks after overwrite, want 1", len(again.Tasks))
	}
	if again.IndexMap == nil || len(again.IndexMap) != 0 {
		t.Fatalf("invalidated index should round-trip as empty, got %v", again.IndexMap)
	}

	// Records are isolated per user.
	if err := repo.Save(ctx, sampleRecord("7")); err != nil {
		t.Fatal(err)
	}
	other, err := repo.Get(ctx, "7")
	if err != nil || len(other.Tasks) != 2 {
		t.Fatalf("Get(7) = %+v, %v", other, err)
	}
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	rec := sampleRecord("42")
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Tasks[0].Content = "mutated after save"

	got, err := repo.Get(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}
	if got.Tasks[0].Content != "Buy milk" {
		t.Fatal("stored record shares memory with the caller")
	}
}

func TestSQLRepositoryOnSQLite(t *testing.T) {
	db, err := database.NewSQLite(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "todo.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := EnsureSQLiteSchema(context.Background(), db); err != nil {
		t.Fatal(err)
	}

	repo := NewSQLRepository(db)
	defer repo.Close()

	exerciseRepository(t, repo)
}

func TestRedisRepository(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	prefix := "cloudtodo-test-" + time.Now().Format("150405.000000")
	repo := NewRedisRepository(client, prefix)
	defer repo.Close()

	t.Cleanup(func() {
		ctx := context.Background()
		for _, id := range []string{"42", "7"} {
			client.Del(ctx, repo.key(id))
		}
	})

	exerciseRepository(t, repo)
}

func TestRedisKeyLayout(t *testing.T) {
	repo := NewRedisRepository(nil, "")
	if got := repo.key("42"); got != "todo:user:42" {
		t.Fatalf("key = %q, want todo:user:42", got)
	}
}

func TestDecodeRecordRejectsGarbage(t *testing.T) {
	if _, err := decodeRecord([]byte("{not json")); err == nil {
		t.Fatal("expected an error for malformed data")
	}
}
