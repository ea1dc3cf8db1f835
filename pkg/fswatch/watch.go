package fswatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/reverso/pkg/errors"
	"github.com/sidkik/reverso/pkg/sync"
)

var fs = afero.NewOsFs()

// Watcher notifies when the source tree of any watched task changes.
type Watcher struct {
	// Changes receives a value whenever files within the watched trees
	// change. Bursts of changes are combined into a single notification.
	Changes chan struct{}

	watcher *fsnotify.Watcher
}

// Watch watches the source trees of `tasks`. Subtrees that the tasks exclude
// aren't watched.
func Watch(tasks []sync.Task) (Watcher, error) {
	pathsToWatch, err := getPathsToWatch(tasks)
	if err != nil {
		return Watcher{}, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Watcher{}, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return Watcher{}, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}

	go logErrors(watcher.Errors)
	events := watchNewDirs(watcher, watcher.Events)
	return Watcher{
		Changes: combineUpdates(events),
		watcher: watcher,
	}, nil
}

// Close stops watching, and releases the underlying file handles.
func (w Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

// watchNewDirs extends the watch to directories created after the watcher
// started, since fsnotify doesn't watch recursively.
func watchNewDirs(watcher *fsnotify.Watcher, in <-chan fsnotify.Event) <-chan fsnotify.Event {
	out := make(chan fsnotify.Event, 16)
	go func() {
		defer close(out)
		for event := range in {
			if event.Has(fsnotify.Create) {
				if isDir, _ := afero.IsDir(fs, event.Name); isDir {
					if err := watcher.Add(event.Name); err != nil {
						log.WithError(err).WithField("path", event.Name).
							Warn("Failed to watch new directory")
					}
				}
			}
			out <- event
		}
	}()
	return out
}

func logErrors(errs <-chan error) {
	for err := range errs {
		log.WithError(err).Debug("File watcher error")
	}
}

func getPathsToWatch(tasks []sync.Task) (paths []string, err error) {
	for _, task := range tasks {
		root, err := filepath.Abs(task.Source)
		if err != nil {
			return nil, errors.WithContext(err, "get absolute path")
		}

		fi, err := fs.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.FileNotFound{Path: root}
			}
			return nil, errors.WithContext(err, "stat")
		}

		if !fi.IsDir() {
			return nil, errors.NotADirectory{Path: root}
		}

		// Because fsnotify doesn't watch directories recursively, we walk
		// the tree and add each subdirectory. Watching a directory also
		// reports changes to the files directly within it.
		subdirs, err := getDirs(task.Filter(), root)
		if err != nil {
			return nil, errors.WithContext(err, "get subdirs")
		}
		paths = append(paths, subdirs...)
	}

	return paths, nil
}

func getDirs(filter sync.Filter, root string) (paths []string, err error) {
	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}

		if !fi.IsDir() {
			return nil
		}

		relativePath, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(relativePath, "..") {
			// This shouldn't happen because `path` is always a child of `root`.
			return errors.WithContext(err, "normalized path")
		}

		entry := filepath.ToSlash(relativePath)
		if entry == "." {
			entry = ""
		}

		if _, excluded := filter.Excludes(entry); excluded {
			return filepath.SkipDir
		}

		paths = append(paths, path)
		return nil
	})
	return paths, err
}
