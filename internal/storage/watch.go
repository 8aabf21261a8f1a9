package storage

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// WatchSnapshot 监控快照文件所在目录，文件被外部进程改写（例如 CI 直接提交新的 news.json）时
// 按磁盘内容刷新缓存。监控目录而不是文件本身，是因为原子替换会换掉 inode。
// onChange 可为空，用于额外通知。ctx 结束后退出。
func (s *Store) WatchSnapshot(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.SnapshotPath)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}
	name := filepath.Base(s.SnapshotPath)

	go func() {
		defer watcher.Close()
		var debounce *time.Timer
		fire := func() {
			s.reloadSnapshotCache(context.Background())
			if onChange != nil {
				onChange()
			}
		}

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Op&fsnotify.Chmod == fsnotify.Chmod {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				// 编辑器/脚本写文件常会触发多次事件，合并成一次
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, fire)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("storage: snapshot watcher error: %v", err)
			}
		}
	}()

	return nil
}
