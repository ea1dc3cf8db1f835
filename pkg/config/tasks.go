package config

import (
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/reverso/pkg/errors"
	"github.com/sidkik/reverso/pkg/sync"
)

// Mocked for unit testing.
var (
	fs            = afero.NewOsFs()
	homedirExpand = homedir.Expand
)

const (
	// InitialConfigVersion is the first version of the reverso config.
	// Config files that do not specify a version default to this version.
	InitialConfigVersion = "v1alpha1"

	// SupportedConfigVersion is the version of the reverso config supported by
	// the current binary.
	SupportedConfigVersion = "v1alpha1"
)

// Config is the contents of a reverso configuration file.
type Config struct {
	Version string       `json:"version,omitempty" toml:"version"`
	Tasks   []TaskConfig `json:"tasks,omitempty" toml:"tasks"`

	// The original single task layout. If SrcDir is set, it's treated as an
	// extra task that runs before the others.
	SrcDir      string   `json:"src_dir,omitempty" toml:"src_dir"`
	DestDir     string   `json:"dest_dir,omitempty" toml:"dest_dir"`
	IncludeList []string `json:"include_list,omitempty" toml:"include_list"`
	ExcludeList []string `json:"exclude_list,omitempty" toml:"exclude_list"`

	// Only populated and consumed by reverso. Never set by user.
	path string
}

// TaskConfig configures how a single directory is mirrored.
type TaskConfig struct {
	Name        string `json:"name,omitempty" toml:"name"`
	Source      string `json:"source" toml:"source"`           // Required.
	Destination string `json:"destination" toml:"destination"` // Required.

	Include    []string `json:"include,omitempty" toml:"include"`
	Exclude    []string `json:"exclude,omitempty" toml:"exclude"`
	Require    []string `json:"require,omitempty" toml:"require"`
	OnlyNewest []string `json:"onlyNewest,omitempty" toml:"only_newest"`

	// Compare is one of `always`, `never`, `fast`, or `deep`. Defaults to
	// `deep`.
	Compare string `json:"compare,omitempty" toml:"compare"`
}

func (c Config) getVersion() string {
	return c.Version
}

// GetPath returns the filepath that the config was parsed from.
func (c Config) GetPath() string {
	return c.path
}

// ParseConfig parses the configuration file at `path`. The format is picked
// based on the file extension.
func ParseConfig(path string) (Config, error) {
	config := Config{
		path:    path,
		Version: InitialConfigVersion,
	}
	if err := parseConfig(path, &config, SupportedConfigVersion); err != nil {
		return Config{}, errors.WithContext(err, "parse")
	}

	if config.SrcDir != "" || config.DestDir != "" {
		legacy := TaskConfig{
			Source:      config.SrcDir,
			Destination: config.DestDir,
			Include:     legacyPatterns(config.IncludeList, false),
			Exclude:     legacyPatterns(config.ExcludeList, true),
		}
		config.Tasks = append([]TaskConfig{legacy}, config.Tasks...)
	}

	if len(config.Tasks) == 0 {
		return Config{}, errors.NewFriendlyError(
			"The configuration in %q doesn't define any tasks.", path)
	}
	return config, nil
}

// globEscaper escapes glob syntax so that legacy entries match literally.
var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
)

// legacyPatterns converts the literal paths of the single task layout into
// patterns. Legacy excludes match any path that starts with the entry, so
// `build` also excludes `build.log`.
func legacyPatterns(entries []string, prefix bool) []string {
	var patterns []string
	for _, entry := range entries {
		pattern := globEscaper.Replace(entry)
		if prefix {
			pattern += "*"
		} else if entry == "" {
			pattern = "."
		}
		patterns = append(patterns, pattern)
	}
	return patterns
}

// SyncTasks validates the configured tasks, and converts them into the form
// used by the sync package. Relative paths are resolved relative to the
// directory containing the config file.
func (c Config) SyncTasks() ([]sync.Task, error) {
	var tasks []sync.Task
	for i, taskCfg := range c.Tasks {
		name := taskCfg.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}

		task, err := taskCfg.syncTask(name, filepath.Dir(c.path))
		if err != nil {
			return nil, errors.WithContext(err, fmt.Sprintf("task %q", name))
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (c TaskConfig) syncTask(name, relativeTo string) (sync.Task, error) {
	if c.Source == "" {
		return sync.Task{}, errors.MissingFieldError{Field: "source"}
	}
	if c.Destination == "" {
		return sync.Task{}, errors.MissingFieldError{Field: "destination"}
	}

	source, err := resolvePath(c.Source, relativeTo)
	if err != nil {
		return sync.Task{}, errors.WithContext(err, "resolve source")
	}

	destination, err := resolvePath(c.Destination, relativeTo)
	if err != nil {
		return sync.Task{}, errors.WithContext(err, "resolve destination")
	}

	task := sync.Task{
		Name:        name,
		Source:      source,
		Destination: destination,
	}

	patternLists := []struct {
		field string
		raw   []string
		dst   *sync.Patterns
	}{
		{"include", c.Include, &task.Include},
		{"exclude", c.Exclude, &task.Exclude},
		{"require", c.Require, &task.Require},
		{"onlyNewest", c.OnlyNewest, &task.OnlyNewest},
	}
	for _, list := range patternLists {
		patterns, err := sync.CompilePatterns(list.raw)
		if err != nil {
			return sync.Task{}, errors.WithContext(err, list.field)
		}
		*list.dst = patterns
	}

	task.Compare, err = sync.ParseEqualityPolicy(c.Compare)
	if err != nil {
		return sync.Task{}, errors.WithContext(err, "compare")
	}
	return task, nil
}

// resolvePath expands ~'s in `path`, and makes it absolute.
func resolvePath(path, relativeTo string) (string, error) {
	expanded, err := homedirExpand(path)
	if err != nil {
		return "", errors.WithContext(err, "expand homedir")
	}

	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(relativeTo, expanded)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.WithContext(err, "get absolute path")
	}
	return abs, nil
}
