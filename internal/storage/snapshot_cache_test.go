package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newCachedStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &Store{
		Redis:        rdb,
		SnapshotPath: filepath.Join(t.TempDir(), "news.json"),
	}, mr
}

func TestPublishSnapshotWritesCache(t *testing.T) {
	s, mr := newCachedStore(t)
	ctx := context.Background()

	if err := s.PublishSnapshot(ctx, []byte(`["v1"]`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got, err := mr.Get(snapshotCacheKey)
	if err != nil || got != `["v1"]` {
		t.Fatalf("cache = %q, %v", got, err)
	}
	if mr.TTL(snapshotCacheKey) <= 0 {
		t.Fatalf("cached snapshot should expire")
	}
}

func TestSlowReaderCannotRestoreOldSnapshot(t *testing.T) {
	s, _ := newCachedStore(t)
	ctx := context.Background()

	if err := s.PublishSnapshot(ctx, []byte(`["old"]`)); err != nil {
		t.Fatalf("publish old: %v", err)
	}
	// 某个请求在发布前读到了旧文件
	stale, err := os.ReadFile(s.SnapshotPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := s.PublishSnapshot(ctx, []byte(`["new"]`)); err != nil {
		t.Fatalf("publish new: %v", err)
	}
	// 发布完成后它才回写缓存
	s.fillSnapshotCache(ctx, stale)

	got, err := s.ReadSnapshot(ctx)
	if err != nil || string(got) != `["new"]` {
		t.Fatalf("ReadSnapshot = %s, %v; want the published snapshot", got, err)
	}
}

func TestReadSnapshotFillsEmptyCache(t *testing.T) {
	s, mr := newCachedStore(t)
	ctx := context.Background()

	if err := os.WriteFile(s.SnapshotPath, []byte(`["disk"]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.ReadSnapshot(ctx); err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got, _ := mr.Get(snapshotCacheKey); got != `["disk"]` {
		t.Fatalf("cache = %q", got)
	}
}

func TestReloadSnapshotCacheAfterExternalWrite(t *testing.T) {
	s, mr := newCachedStore(t)
	ctx := context.Background()

	if err := s.PublishSnapshot(ctx, []byte(`["v1"]`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := os.WriteFile(s.SnapshotPath, []byte(`["v2"]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s.reloadSnapshotCache(ctx)
	if got, _ := mr.Get(snapshotCacheKey); got != `["v2"]` {
		t.Fatalf("cache = %q, want reloaded content", got)
	}

	if err := os.Remove(s.SnapshotPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	s.reloadSnapshotCache(ctx)
	if mr.Exists(snapshotCacheKey) {
		t.Fatalf("cache should be dropped when the snapshot file is gone")
	}
}
