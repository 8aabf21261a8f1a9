package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	snapshotCacheKey = "news:snapshot"
	defaultCacheTTL  = 5 * time.Minute
)

// ReadSnapshot 读取当前发布的快照：先查 Redis，未命中再读文件并回写缓存。
// 回写用 SETNX，读到旧文件的慢请求不会覆盖发布时写入的新内容。
// 文件不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist)。
func (s *Store) ReadSnapshot(ctx context.Context) ([]byte, error) {
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, snapshotCacheKey).Bytes(); err == nil {
			return bs, nil
		}
	}

	bs, err := os.ReadFile(s.SnapshotPath)
	if err != nil {
		return nil, err
	}

	s.fillSnapshotCache(ctx, bs)
	return bs, nil
}

// fillSnapshotCache 只在缓存为空时写入
func (s *Store) fillSnapshotCache(ctx context.Context, bs []byte) {
	if s.Redis == nil {
		return
	}
	_ = s.Redis.SetNX(ctx, snapshotCacheKey, bs, s.cacheTTL()).Err()
}

func (s *Store) cacheTTL() time.Duration {
	if s.CacheTTL <= 0 {
		return defaultCacheTTL
	}
	return s.CacheTTL
}

// cacheSnapshot 用新内容覆盖缓存；写失败时删除，退回读文件
func (s *Store) cacheSnapshot(ctx context.Context, body []byte) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Set(ctx, snapshotCacheKey, body, s.cacheTTL()).Err(); err != nil {
		log.Printf("storage: cache snapshot: %v", err)
		s.InvalidateSnapshot(ctx)
	}
}

// reloadSnapshotCache 文件被外部改写后按磁盘内容刷新缓存
func (s *Store) reloadSnapshotCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	bs, err := os.ReadFile(s.SnapshotPath)
	if err != nil {
		s.InvalidateSnapshot(ctx)
		return
	}
	s.cacheSnapshot(ctx, bs)
}

// PublishSnapshot 原子替换快照：同目录写临时文件再 rename，
// 任何一步失败旧快照都保持不变
func (s *Store) PublishSnapshot(ctx context.Context, body []byte) error {
	dir := filepath.Dir(s.SnapshotPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".news-*.json")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// rename 成功后该文件已不存在，忽略错误
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, s.SnapshotPath); err != nil {
		return fmt.Errorf("storage: replace snapshot: %w", err)
	}

	s.cacheSnapshot(ctx, body)
	return nil
}

// InvalidateSnapshot 删除快照缓存
func (s *Store) InvalidateSnapshot(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, snapshotCacheKey).Err(); err != nil {
		log.Printf("storage: invalidate snapshot cache: %v", err)
	}
}
