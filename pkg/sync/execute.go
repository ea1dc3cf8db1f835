package sync

import (
	"fmt"
	"io"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/reverso/pkg/errors"
)

const (
	// NewContentsSuffix is appended to a destination path to stage the new
	// contents of a file that's being overwritten.
	NewContentsSuffix = ".reverso_src"

	// OldContentsSuffix is appended to a destination path to hold the old
	// contents of a file while the new contents are moved into place.
	OldContentsSuffix = ".reverso_dest"
)

// Op is a kind of change applied to the destination.
type Op int

const (
	// OpRemove deletes a destination entry.
	OpRemove Op = iota
	// OpOverwrite replaces an existing destination file.
	OpOverwrite
	// OpAdd copies a new file into the destination.
	OpAdd
)

func (op Op) String() string {
	switch op {
	case OpRemove:
		return "REMOVE"
	case OpOverwrite:
		return "OVERWRITE"
	case OpAdd:
		return "ADD"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Outcome is the result of applying a single entry of a plan.
type Outcome struct {
	Op   Op
	Path string

	// Index is the zero based position of the entry within its list, and
	// Total is the length of the list.
	Index, Total int

	// Err is nil if the change was applied.
	Err error
}

// Progress returns the percentage of the list that was done before this
// entry, truncated to an integer.
func (o Outcome) Progress() int {
	if o.Total == 0 {
		return 100
	}
	return o.Index * 100 / o.Total
}

// Execute applies `plan`. Removals happen first, then overwrites, then adds.
// A failing entry doesn't stop the others from being applied. `report` is
// called once per entry. The number of failed entries is returned. Directories
// that can't be removed because they still hold kept entries aren't counted.
func Execute(srcRoot, destRoot string, plan Plan, report func(Outcome)) (failed int) {
	apply := func(op Op, entries []string, fn func(string) error) {
		for i, entry := range entries {
			err := fn(entry)
			if _, notEmpty := errors.RootCause(err).(errors.DirectoryNotEmpty); err != nil && !notEmpty {
				failed++
			}
			report(Outcome{Op: op, Path: entry, Index: i, Total: len(entries), Err: err})
		}
	}

	apply(OpRemove, plan.Remove, func(entry string) error {
		return Remove(destRoot, entry)
	})
	apply(OpOverwrite, plan.Overwrite, func(entry string) error {
		return Overwrite(srcRoot, destRoot, entry)
	})
	apply(OpAdd, plan.Add, func(entry string) error {
		return Add(srcRoot, destRoot, entry)
	})
	return failed
}

// Remove deletes `entry` from the destination. Directories are only removed
// if they're empty.
func Remove(destRoot, entry string) error {
	path := fullPath(destRoot, entry)
	fi, err := lstat(path)
	if err != nil {
		return errors.WithContext(err, "stat")
	}

	if fi.IsDir() {
		empty, err := afero.IsEmpty(fs, path)
		if err != nil {
			return errors.WithContext(err, "check if empty")
		}
		if !empty {
			return errors.DirectoryNotEmpty{Path: path}
		}
	}

	if err := fs.Remove(path); err != nil {
		return errors.WithContext(err, "remove")
	}
	return nil
}

// Add copies `entry` from the source into the destination, creating any
// missing parent directories.
func Add(srcRoot, destRoot string, entry string) error {
	return copyFile(fullPath(srcRoot, entry), fullPath(destRoot, entry))
}

// Overwrite replaces the destination copy of `entry` with the source copy
// without ever exposing a partially written file at the destination path:
//  1. The source is copied next to the destination, with NewContentsSuffix.
//  2. The destination is renamed to have OldContentsSuffix.
//  3. The new contents are renamed onto the destination path.
//  4. The old contents are deleted.
//
// Only step 3 changes what's visible at the destination path. If the process
// dies before then, the old contents are untouched, and the staging files are
// cleaned up by the next run. Between steps 2 and 3 the destination path is
// briefly missing.
func Overwrite(srcRoot, destRoot, entry string) error {
	destPath := fullPath(destRoot, entry)
	newPath := destPath + NewContentsSuffix
	oldPath := destPath + OldContentsSuffix

	if err := copyFile(fullPath(srcRoot, entry), newPath); err != nil {
		discardStagingFile(newPath)
		return errors.WithContext(err, "stage new contents")
	}

	if err := fs.Rename(destPath, oldPath); err != nil {
		discardStagingFile(newPath)
		return errors.WithContext(err, "move old contents aside")
	}

	if err := fs.Rename(newPath, destPath); err != nil {
		// Put the old contents back so that the destination path isn't left
		// empty.
		if restoreErr := fs.Rename(oldPath, destPath); restoreErr != nil {
			log.WithError(restoreErr).WithField("path", destPath).Error(
				"Failed to restore the old contents after a failed overwrite. " +
					"They're still available at " + oldPath)
		}
		discardStagingFile(newPath)
		return errors.WithContext(err, "move new contents into place")
	}

	if err := fs.Remove(oldPath); err != nil {
		return errors.WithContext(err, "remove old contents")
	}
	return nil
}

func discardStagingFile(path string) {
	if err := fs.Remove(path); err != nil {
		exists, existsErr := afero.Exists(fs, path)
		if existsErr != nil || exists {
			log.WithError(err).WithField("path", path).Warn(
				"Failed to clean up staging file. It will be removed by the next run.")
		}
	}
}

func copyFile(src, dst string) error {
	dstParent := filepath.Dir(dst)
	dstParentExists, err := afero.DirExists(fs, dstParent)
	if err != nil {
		return errors.WithContext(err, "check if parent exists")
	}

	if !dstParentExists {
		if err := fs.MkdirAll(dstParent, 0755); err != nil {
			return errors.WithContext(err, "make parent")
		}
	}

	srcFile, err := fs.Open(src)
	if err != nil {
		return errors.WithContext(err, "open source")
	}
	defer srcFile.Close()

	fileInfo, err := srcFile.Stat()
	if err != nil {
		return errors.WithContext(err, "stat")
	}

	dstFile, err := fs.OpenFile(dst, createFlags, fileInfo.Mode().Perm())
	if err != nil {
		return errors.WithContext(err, "open destination")
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return errors.WithContext(err, "copy")
	}

	if err := dstFile.Close(); err != nil {
		return errors.WithContext(err, "close destination")
	}

	// OpenFile doesn't change the mode of files that already exist, and the
	// umask may have masked some bits.
	if err := fs.Chmod(dst, fileInfo.Mode().Perm()); err != nil {
		return errors.WithContext(err, "set file mode")
	}
	return nil
}
