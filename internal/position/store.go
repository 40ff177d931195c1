package position

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"alphawatch/internal/logger"
)

// FileStore 文件账本的只读视图：进程启动时整体加载，之后通过 fsnotify
// 监听文件变化热更新。决策核心每周期读一次快照，从不写回。
type FileStore struct {
	path string

	mu        sync.RWMutex
	positions []Position
	loadedAt  time.Time

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileStore 加载 path 指向的持仓文件。文件不存在按空账本处理，
// 内容损坏才返回错误。
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, done: make(chan struct{})}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Watch 启动文件监听，账本被外部改写后自动重载。重载失败保留旧快照。
func (s *FileStore) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create position watcher: %w", err)
	}
	// 监听目录而不是文件本身，兼容编辑器原子替换（rename + create）
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.watcher = w

	go func() {
		var timer *time.Timer
		target := filepath.Clean(s.path)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				// 200ms 去抖，吸收连续写入
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(200*time.Millisecond, func() {
					if err := s.reload(); err != nil {
						logger.Warnf("持仓文件重载失败，沿用旧快照: %v", err)
						return
					}
					logger.Infof("持仓文件已重载: %s (%d 条)", s.path, s.Count())
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warnf("持仓文件监听错误: %v", err)
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

// Close 停止监听。
func (s *FileStore) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *FileStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.positions = nil
			s.loadedAt = time.Now()
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read position file %s: %w", s.path, err)
	}

	var raw []Position
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse position file %s: %w", s.path, err)
	}

	valid := make([]Position, 0, len(raw))
	for _, p := range raw {
		if err := p.Validate(); err != nil {
			logger.Warnf("跳过非法持仓记录: %v", err)
			continue
		}
		valid = append(valid, p)
	}

	s.mu.Lock()
	s.positions = valid
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// ByInstrument 返回指定合约的持仓快照（拷贝）。
func (s *FileStore) ByInstrument(instID string) []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Position
	for _, p := range s.positions {
		if p.Instrument == instID {
			out = append(out, p)
		}
	}
	return out
}

// All 返回全部持仓快照（拷贝）。
func (s *FileStore) All() []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Position, len(s.positions))
	copy(out, s.positions)
	return out
}

func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}
