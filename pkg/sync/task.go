package sync

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/reverso/pkg/errors"
)

// Task describes a single source tree to mirror into a destination tree.
type Task struct {
	// Name identifies the task in logs and prompts.
	Name string

	Source      string
	Destination string

	Include, Exclude, Require Patterns

	// OnlyNewest groups entries by the first pattern they match. Only the
	// most recently created entry of each group is mirrored.
	OnlyNewest Patterns

	Compare EqualityPolicy
}

// Reporter receives the progress of a task.
type Reporter interface {
	// Plan is called once the plan has been computed, before anything is
	// changed.
	Plan(task Task, plan Plan)

	// Outcome is called after each entry of the plan has been applied.
	Outcome(task Task, outcome Outcome)
}

// Filter returns the filter applied to the source tree.
func (task Task) Filter() Filter {
	return Filter{Include: task.Include, Exclude: task.Exclude, Require: task.Require}
}

// Run mirrors the task's source into its destination. If `dryRun` is true,
// the plan is only reported.
// An error is only returned if the task couldn't be planned. Failures to
// apply individual entries are passed to the reporter instead.
func (task Task) Run(dryRun bool, reporter Reporter) error {
	srcRoot, err := task.sourceRoot()
	if err != nil {
		return err
	}

	destRoot, err := filepath.Abs(task.Destination)
	if err != nil {
		return errors.WithContext(err, "get absolute path of destination")
	}

	if !dryRun {
		if err := fs.MkdirAll(destRoot, 0755); err != nil {
			return errors.WithContext(err, fmt.Sprintf("create destination %q", destRoot))
		}
	}

	plan, err := task.plan(srcRoot, destRoot)
	if err != nil {
		return err
	}
	reporter.Plan(task, plan)

	if dryRun || plan.Empty() {
		return nil
	}

	failed := Execute(srcRoot, destRoot, plan, func(o Outcome) {
		reporter.Outcome(task, o)
	})
	if failed > 0 {
		log.WithField("task", task.Name).Warnf(
			"%d changes could not be applied. See the log above for details.", failed)
	}
	return nil
}

// BuildPlan computes the changes needed to mirror the task without applying
// them.
func (task Task) BuildPlan() (Plan, error) {
	srcRoot, err := task.sourceRoot()
	if err != nil {
		return Plan{}, err
	}

	destRoot, err := filepath.Abs(task.Destination)
	if err != nil {
		return Plan{}, errors.WithContext(err, "get absolute path of destination")
	}
	return task.plan(srcRoot, destRoot)
}

func (task Task) plan(srcRoot, destRoot string) (Plan, error) {
	log.WithField("task", task.Name).Debug("Collecting source files")
	included, err := Collect(srcRoot, task.Filter())
	if err != nil {
		return Plan{}, errors.WithContext(err, "collect source")
	}

	included, err = ReduceNewest(srcRoot, included, task.OnlyNewest)
	if err != nil {
		return Plan{}, errors.WithContext(err, "keep newest files")
	}

	log.WithField("task", task.Name).Debug("Collecting destination files")
	destExisting := NewPathSet()
	destExists, err := afero.DirExists(fs, destRoot)
	if err != nil {
		return Plan{}, errors.WithContext(err, "check destination")
	}
	if destExists {
		destExisting, err = CollectAll(destRoot)
		if err != nil {
			return Plan{}, errors.WithContext(err, "collect destination")
		}
	}

	plan, err := BuildPlan(srcRoot, destRoot, included, destExisting, task.Compare)
	if err != nil {
		return Plan{}, errors.WithContext(err, "plan")
	}
	return plan, nil
}

// sourceRoot validates the source root, and returns its absolute path.
func (task Task) sourceRoot() (string, error) {
	srcRoot, err := filepath.Abs(task.Source)
	if err != nil {
		return "", errors.WithContext(err, "get absolute path of source")
	}

	fi, err := fs.Stat(srcRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.FileNotFound{Path: srcRoot}
		}
		return "", errors.WithContext(err, "stat source")
	}

	if !fi.IsDir() {
		return "", errors.NotADirectory{Path: srcRoot}
	}
	return srcRoot, nil
}
