package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/rainfrog/engine/core"
)

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeShader
	AssetTypeImage
	AssetTypeConfig
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeShader:
		return "shader"
	case AssetTypeImage:
		return "image"
	case AssetTypeConfig:
		return "config"
	default:
		return "none"
	}
}

// Change is a modified asset, named relative to the watched root.
type Change struct {
	Name string
	Type AssetType
}

var ErrWatcherClosed = errors.New("asset watcher already closed")

// Watcher reports asset changes under a directory tree. It runs one
// goroutine that never touches the graphics device: changes are queued on
// a buffered channel and drained by the frame loop with Drain.
type Watcher struct {
	source  *DirSource
	watcher *fsnotify.Watcher

	mutex    sync.Mutex
	pending  map[string]Change
	order    []string
	isClosed bool

	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewWatcher(source *DirSource) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		source:  source,
		watcher: fsWatch,
		pending: make(map[string]Change),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if err := w.watchRecursive(source.Root(), false); err != nil {
		fsWatch.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.start()
	return w, nil
}

// Notify is signalled whenever new changes are pending.
func (w *Watcher) Notify() <-chan struct{} {
	return w.notify
}

// Drain returns the changes queued since the last call, oldest first, with
// repeated writes to the same file collapsed into one entry.
func (w *Watcher) Drain() []Change {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if len(w.order) == 0 {
		return nil
	}
	out := make([]Change, 0, len(w.order))
	for _, name := range w.order {
		out = append(out, w.pending[name])
	}
	w.pending = make(map[string]Change)
	w.order = w.order[:0]
	return out
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return ErrWatcherClosed
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					if err := w.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("unable to watch %s: %s", e.Name, err)
					}
					continue
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				w.handleFileEvent(e.Name)
			}
			if e.Op&fsnotify.Remove != 0 {
				// removing an unknown path only fails, nothing else to do
				_ = w.watcher.Remove(e.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-w.done:
			return
		}
	}
}

// watchRecursive adds or removes every directory under path.
func (w *Watcher) watchRecursive(path string, unWatch bool) error {
	return filepath.WalkDir(path, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if unWatch {
			return w.watcher.Remove(walkPath)
		}
		return w.watcher.Add(walkPath)
	})
}

func (w *Watcher) handleFileEvent(path string) {
	assetType := DetermineAssetType(path)
	if assetType == AssetTypeNone {
		return
	}
	name, ok := w.source.Rel(path)
	if !ok {
		return
	}

	w.mutex.Lock()
	if _, queued := w.pending[name]; !queued {
		w.order = append(w.order, name)
	}
	w.pending[name] = Change{Name: name, Type: assetType}
	w.mutex.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
	core.LogDebug("asset changed: %s (%s)", name, assetType)
}

func DetermineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".vert", ".frag", ".comp", ".glsl":
		return AssetTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return AssetTypeImage
	case ".toml":
		return AssetTypeConfig
	default:
		return AssetTypeNone
	}
}
