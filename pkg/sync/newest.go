package sync

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/reverso/pkg/errors"
)

// Mocked out for unit testing.
var birthTime = platformBirthTime

// groupWinner is the entry currently kept for an only-newest group.
type groupWinner struct {
	path    string
	created time.Time
}

// ReduceNewest drops all but the most recently created entry of each
// only-newest group. Entries are grouped by the first pattern in `onlyNewest`
// that they match, so entries in different directories compete if they match
// the same pattern. When two entries were created at the same time, the one
// that was collected first is kept. Entries that don't match any pattern are
// left alone.
func ReduceNewest(root string, files PathSet, onlyNewest Patterns) (PathSet, error) {
	if len(onlyNewest) == 0 {
		return files, nil
	}

	groups := map[string]groupWinner{}
	losers := map[string]struct{}{}
	for _, entry := range files.Paths() {
		pattern, ok := onlyNewest.Match(entry)
		if !ok {
			continue
		}

		created, err := creationTime(fullPath(root, entry))
		if err != nil {
			return PathSet{}, errors.WithContext(err, fmt.Sprintf("get creation time of %q", entry))
		}

		group := pattern.String()
		curr, ok := groups[group]
		if !ok {
			groups[group] = groupWinner{path: entry, created: created}
			continue
		}

		if created.After(curr.created) {
			losers[curr.path] = struct{}{}
			groups[group] = groupWinner{path: entry, created: created}
		} else {
			losers[entry] = struct{}{}
		}
	}

	for group, winner := range groups {
		log.WithFields(log.Fields{
			"pattern": group,
			"path":    winner.path,
		}).Debug("Keeping newest file")
	}

	return files.Filter(func(entry string) bool {
		_, lost := losers[entry]
		return !lost
	}), nil
}

// creationTime returns when the file at `path` was created. If the platform or
// filesystem doesn't record creation times, the current time is used instead.
// This makes such files look newer than any file with a real creation time.
func creationTime(path string) (time.Time, error) {
	fi, err := fs.Stat(path)
	if err != nil {
		return time.Time{}, errors.WithContext(err, "stat")
	}

	created, ok, err := birthTime(fs, path, fi)
	if err != nil {
		return time.Time{}, errors.WithContext(err, "read birth time")
	}

	if !ok {
		log.WithField("path", path).Debug(
			"Creation time unavailable. Falling back to the current time.")
		return clock.Now(), nil
	}
	return created, nil
}
