package sync

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/reverso/pkg/errors"
)

// Filter decides which entries of a tree are collected.
type Filter struct {
	// Include selects entries. Once a directory is included, everything
	// beneath it is included as well.
	Include Patterns

	// Exclude prunes entries and their entire subtree.
	Exclude Patterns

	// Require overrides Exclude for the entries it matches.
	Require Patterns
}

// includeRule is the include list in effect while walking a subtree. It's
// either the user's include patterns, or a catch-all inherited from an
// included ancestor.
type includeRule struct {
	inherited bool
	patterns  Patterns
}

// Excludes returns the exclude pattern that prunes `entry`, if any. Entries
// matched by a require pattern are never excluded.
func (f Filter) Excludes(entry string) (Pattern, bool) {
	if _, required := f.Require.Match(entry); required {
		return Pattern{}, false
	}
	return f.Exclude.Match(entry)
}

func (rule includeRule) matches(entry string) bool {
	if rule.inherited {
		return true
	}
	_, ok := rule.patterns.Match(entry)
	return ok
}

// Collect walks the tree at `root` and returns the relative paths that pass
// `filter`. Directories are listed after their contents. Any filesystem error
// aborts the walk.
func Collect(root string, filter Filter) (PathSet, error) {
	set := NewPathSet()
	rule := includeRule{patterns: filter.Include}
	if err := collect(root, "", rule, filter, &set); err != nil {
		return PathSet{}, err
	}
	return set, nil
}

// CollectAll returns every entry beneath `root`.
func CollectAll(root string) (PathSet, error) {
	set := NewPathSet()
	if err := collect(root, "", includeRule{inherited: true}, Filter{}, &set); err != nil {
		return PathSet{}, err
	}
	return set, nil
}

func collect(root, entry string, rule includeRule, filter Filter, set *PathSet) error {
	if excludedBy, excluded := filter.Excludes(entry); excluded {
		log.WithFields(log.Fields{
			"path":    entry,
			"pattern": excludedBy.String(),
		}).Debug("Skipping excluded path")
		return nil
	}

	included := rule.matches(entry)

	// The root itself is followed if it's a symlink, so that a linked tree is
	// walked rather than listed as empty.
	path := fullPath(root, entry)
	stat := lstat
	if entry == "" {
		stat = fs.Stat
	}
	fi, err := stat(path)
	if err != nil {
		return errors.WithContext(err, fmt.Sprintf("stat %q", path))
	}

	if fi.IsDir() {
		childRule := rule
		if included {
			childRule = includeRule{inherited: true}
		}

		children, err := afero.ReadDir(fs, path)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("read dir %q", path))
		}

		for _, child := range children {
			err := collect(root, childPath(entry, child.Name()), childRule, filter, set)
			if err != nil {
				return err
			}
		}
	}

	if included && entry != "" {
		set.Add(entry)
	}
	return nil
}
