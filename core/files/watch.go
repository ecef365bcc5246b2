package files

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// CacheWatcher keeps a DiskStore's read cache coherent with edits made
// outside the store.
type CacheWatcher struct {
	store    *DiskStore
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// Watch starts a recursive watch on the store root. Hidden directories
// are skipped. The watch stops when ctx is cancelled or Close is called.
func (s *DiskStore) Watch(ctx context.Context) (*CacheWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	cw := &CacheWatcher{
		store:   s,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	if err := cw.addTree(s.root); err != nil {
		watcher.Close()
		return nil, err
	}

	go cw.run(ctx)
	return cw, nil
}

func (cw *CacheWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return cw.watcher.Add(path)
	})
}

func (cw *CacheWatcher) run(ctx context.Context) {
	defer close(cw.done)

	for {
		select {
		case <-ctx.Done():
			cw.watcher.Close()
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handle(event)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.store.logger.Warn("file watch error", "root", cw.store.root, "error", err)
		}
	}
}

func (cw *CacheWatcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	cw.store.cache.Remove(path)

	if event.Has(fsnotify.Create) {
		_ = cw.addTree(path)
	}
}

// Close stops the watch and waits for the event loop to exit.
func (cw *CacheWatcher) Close() error {
	var err error
	cw.stopOnce.Do(func() {
		err = cw.watcher.Close()
	})
	<-cw.done
	return err
}
