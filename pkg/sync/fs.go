package sync

import (
	"os"
	"path"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
)

// Mocked out for unit testing.
var (
	fs    = afero.NewOsFs()
	clock = clockwork.NewRealClock()
)

// createFlags are the flags used to open files that are being copied into.
const createFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

// fullPath converts the relative path `entry` into a path under `root` that
// can be passed to the filesystem.
func fullPath(root, entry string) string {
	if entry == "" {
		return root
	}
	return filepath.Join(root, filepath.FromSlash(entry))
}

// childPath returns the relative path of the child named `name` within the
// relative directory `dir`.
func childPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// lstat stats `path` without following a final symlink when the filesystem
// supports it.
func lstat(path string) (os.FileInfo, error) {
	if lstater, ok := fs.(afero.Lstater); ok {
		fi, _, err := lstater.LstatIfPossible(path)
		return fi, err
	}
	return fs.Stat(path)
}
