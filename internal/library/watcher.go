package library

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tonylu00/bili-sync-sub002/internal/store"
)

// Watcher observes the library directory through OS file events. When
// a downloaded file or a whole video directory disappears outside the
// application, the matching database rows lose their downloaded flag
// so the next sweep re-queues them.
type Watcher struct {
	st   *store.Store
	root string

	watcher       *fsnotify.Watcher
	removedPaths  map[string]bool
	mu            sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
}

func NewWatcher(st *store.Store, root string) *Watcher {
	return &Watcher{
		st:            st,
		root:          root,
		removedPaths:  make(map[string]bool),
		debounceDelay: 2 * time.Second,
		stopChan:      make(chan struct{}),
	}
}

// Start begins watching the library root and every directory under it.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	if err := os.MkdirAll(w.root, 0o755); err != nil {
		watcher.Close()
		return err
	}
	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return err
	}

	log.Printf("library: watching %s", w.root)
	go w.processEvents()
	return nil
}

func (w *Watcher) Stop() error {
	close(w.stopChan)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("library: watcher error: %v", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories must join the watch list; everything else about
	// creations and writes is the downloader's own doing.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watcher.Add(event.Name)
		}
		return
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	// A removed directory matters as much as a removed file: the rows
	// under it all lose their media. Partial and subtitle files do not
	// affect download state.
	name := filepath.Base(event.Name)
	if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".srt") {
		return
	}

	w.mu.Lock()
	w.removedPaths[event.Name] = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.flagRemoved)
	w.mu.Unlock()
}

// flagRemoved runs after the debounce window and pushes the batch of
// vanished paths into the database.
func (w *Watcher) flagRemoved() {
	w.mu.Lock()
	if len(w.removedPaths) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.removedPaths))
	for p := range w.removedPaths {
		paths = append(paths, p)
	}
	w.removedPaths = make(map[string]bool)
	w.mu.Unlock()

	var total int
	for _, p := range paths {
		n, err := w.st.ResetDownloadedUnderPath(p)
		if err != nil {
			log.Printf("library: failed to flag removed path %s: %v", p, err)
			continue
		}
		total += n
	}
	if total > 0 {
		log.Printf("library: %d video(s) lost their media on disk, re-queued for download", total)
	}
}
