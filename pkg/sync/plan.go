package sync

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/reverso/pkg/errors"
)

// Plan is the set of changes that make a destination tree match the included
// source entries. A path appears in at most one of the lists.
type Plan struct {
	// Add contains files that don't exist in the destination yet.
	Add []string

	// Overwrite contains files that exist in both trees, but differ.
	Overwrite []string

	// Remove contains destination entries that aren't included from the
	// source. Directories come after their contents.
	Remove []string
}

// Empty returns whether the plan has nothing to do.
func (plan Plan) Empty() bool {
	return len(plan.Add) == 0 && len(plan.Overwrite) == 0 && len(plan.Remove) == 0
}

// BuildPlan compares the included source entries against the entries that
// already exist in the destination.
// Included directories don't get entries of their own. They're created as a
// side effect of adding the files within them.
func BuildPlan(srcRoot, destRoot string, included, destExisting PathSet,
	policy EqualityPolicy) (Plan, error) {

	var plan Plan
	for _, entry := range included.Paths() {
		srcPath := fullPath(srcRoot, entry)
		fi, err := fs.Stat(srcPath)
		if err != nil {
			return Plan{}, errors.WithContext(err, fmt.Sprintf("stat %q", srcPath))
		}

		if fi.IsDir() {
			continue
		}

		if !destExisting.Contains(entry) {
			log.WithField("path", entry).Debug("Planned add")
			plan.Add = append(plan.Add, entry)
			continue
		}

		destPath := fullPath(destRoot, entry)
		different, err := policy.Different(srcPath, destPath)
		if err != nil {
			return Plan{}, errors.WithContext(err,
				fmt.Sprintf("compare %q and %q", srcPath, destPath))
		}

		if different {
			log.WithField("path", entry).Debug("Planned overwrite")
			plan.Overwrite = append(plan.Overwrite, entry)
		}
	}

	for _, entry := range destExisting.Paths() {
		if included.Contains(entry) {
			continue
		}

		if IsStagingFile(entry) {
			log.WithField("path", entry).Warn("Found a staging file left behind " +
				"by an interrupted overwrite. It will be removed.")
		} else {
			log.WithField("path", entry).Debug("Planned remove")
		}
		plan.Remove = append(plan.Remove, entry)
	}
	return plan, nil
}

// IsStagingFile returns whether `path` has one of the suffixes reserved for
// the temporary files used while overwriting.
func IsStagingFile(path string) bool {
	return strings.HasSuffix(path, NewContentsSuffix) ||
		strings.HasSuffix(path, OldContentsSuffix)
}
