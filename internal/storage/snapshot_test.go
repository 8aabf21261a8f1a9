package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadSnapshotMissingFile(t *testing.T) {
	s := &Store{SnapshotPath: filepath.Join(t.TempDir(), "news.json")}
	if _, err := s.ReadSnapshot(context.Background()); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("ReadSnapshot err = %v, want fs.ErrNotExist", err)
	}
}

func TestPublishSnapshotReplacesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public")
	s := &Store{SnapshotPath: filepath.Join(dir, "news.json")}
	ctx := context.Background()

	// 目录不存在时也能发布
	if err := s.PublishSnapshot(ctx, []byte(`[{"title":"old"}]`)); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := s.PublishSnapshot(ctx, []byte(`[{"title":"new"}]`)); err != nil {
		t.Fatalf("second publish: %v", err)
	}

	got, err := s.ReadSnapshot(ctx)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if string(got) != `[{"title":"new"}]` {
		t.Fatalf("snapshot = %s", got)
	}

	// 不应残留临时文件
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "news.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected files in snapshot dir: %v", names)
	}
}

func TestPublishSnapshotFailureKeepsOld(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "news.json")
	if err := os.WriteFile(path, []byte(`["old"]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// 快照路径指向一个目录，rename 必然失败
	bad := &Store{SnapshotPath: dir}
	if err := bad.PublishSnapshot(context.Background(), []byte(`["new"]`)); err == nil {
		t.Fatalf("expected publish into a directory path to fail")
	}

	got, err := os.ReadFile(path)
	if err != nil || string(got) != `["old"]` {
		t.Fatalf("old snapshot changed: %s, %v", got, err)
	}
}

func TestWatchSnapshotNotifiesOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	s := &Store{SnapshotPath: filepath.Join(dir, "news.json")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	if err := s.WatchSnapshot(ctx, func() { changed <- struct{}{} }); err != nil {
		t.Fatalf("WatchSnapshot: %v", err)
	}

	// 无关文件不触发
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`[]`), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	if err := os.WriteFile(s.SnapshotPath, []byte(`[]`), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatalf("watcher did not report snapshot change")
	}
}

func TestArchiveDisabledWithoutDB(t *testing.T) {
	s := &Store{}
	ctx := context.Background()
	if err := s.ArchiveRecords(ctx, nil); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("ArchiveRecords err = %v, want ErrArchiveDisabled", err)
	}
	if _, err := s.ListRuns(ctx, 10); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("ListRuns err = %v, want ErrArchiveDisabled", err)
	}
	if err := s.StartRun(ctx, "id", "cron", time.Now()); err != nil {
		t.Fatalf("StartRun without DB should be a no-op, got %v", err)
	}
	if err := s.FinishRun(ctx, "id", "", 1, ""); err != nil {
		t.Fatalf("FinishRun without DB should be a no-op, got %v", err)
	}
}

func TestTruncateRunesDB(t *testing.T) {
	if got := truncateRunesDB("  阿森纳官宣签约  ", 3); got != "阿森纳" {
		t.Fatalf("truncateRunesDB = %q", got)
	}
	if got := truncateRunesDB("short", 10); got != "short" {
		t.Fatalf("truncateRunesDB = %q", got)
	}
	if got := hashLink("https://a"); got != hashLink("https://a") || got == hashLink("https://b") {
		t.Fatalf("hashLink should be deterministic and distinct")
	}
}
