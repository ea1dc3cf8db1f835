package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/reverso/pkg/errors"
	"github.com/sidkik/reverso/pkg/sync"
)

func mockHomedir(t *testing.T) {
	origExpand := homedirExpand
	t.Cleanup(func() { homedirExpand = origExpand })

	homedirExpand = func(path string) (string, error) {
		if strings.HasPrefix(path, "~") {
			return "/home/user" + strings.TrimPrefix(path, "~"), nil
		}
		return path, nil
	}
}

func TestSyncTasks(t *testing.T) {
	mockHomedir(t)

	cfg := Config{
		path: "/cfg/reverso.yaml",
		Tasks: []TaskConfig{
			{
				Name:        "docs",
				Source:      "~/docs",
				Destination: "backup/docs",
				Include:     []string{"*"},
				Exclude:     []string{".git"},
				Require:     []string{".git/config"},
				OnlyNewest:  []string{"exports/*"},
				Compare:     "fast",
			},
			{
				Source:      "/abs/src",
				Destination: "/abs/dst",
			},
		},
	}

	tasks, err := cfg.SyncTasks()
	require.NoError(t, err)
	assert.Equal(t, []sync.Task{
		{
			Name:        "docs",
			Source:      "/home/user/docs",
			Destination: "/cfg/backup/docs",
			Include:     sync.MustCompilePatterns("*"),
			Exclude:     sync.MustCompilePatterns(".git"),
			Require:     sync.MustCompilePatterns(".git/config"),
			OnlyNewest:  sync.MustCompilePatterns("exports/*"),
			Compare:     sync.FastCompare,
		},
		{
			Name:        "#2",
			Source:      "/abs/src",
			Destination: "/abs/dst",
			Compare:     sync.DeepCompare,
		},
	}, tasks)
}

func TestSyncTasksErrors(t *testing.T) {
	mockHomedir(t)

	tests := []struct {
		name     string
		task     TaskConfig
		expError error
		expMsg   string
	}{
		{
			name:     "MissingSource",
			task:     TaskConfig{Destination: "/dst"},
			expError: errors.WithContext(errors.MissingFieldError{Field: "source"}, `task "#1"`),
		},
		{
			name:     "MissingDestination",
			task:     TaskConfig{Name: "named", Source: "/src"},
			expError: errors.WithContext(errors.MissingFieldError{Field: "destination"}, `task "named"`),
		},
		{
			name:   "BadPattern",
			task:   TaskConfig{Source: "/src", Destination: "/dst", Exclude: []string{"[oops"}},
			expMsg: `task "#1": exclude: compile pattern "[oops"`,
		},
		{
			name:   "BadCompare",
			task:   TaskConfig{Source: "/src", Destination: "/dst", Compare: "sometimes"},
			expMsg: `task "#1": compare: unknown compare mode "sometimes"`,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			cfg := Config{path: "/cfg/reverso.yaml", Tasks: []TaskConfig{test.task}}
			_, err := cfg.SyncTasks()
			require.Error(t, err)
			if test.expError != nil {
				assert.Equal(t, test.expError, err)
			}
			if test.expMsg != "" {
				assert.Contains(t, err.Error(), test.expMsg)
			}
		})
	}
}

func TestLegacyExcludesMatchPrefixes(t *testing.T) {
	patterns, err := sync.CompilePatterns(legacyPatterns([]string{"build", "a[b]"}, true))
	require.NoError(t, err)

	tests := []struct {
		path  string
		match bool
	}{
		{"build", true},
		{"buildfoo", true},
		{"build/out.bin", true},
		{"a[b]", true},
		{"a[b]/c", true},
		{"ab", false},
		{"src/build", false},
	}
	for _, test := range tests {
		_, ok := patterns.Match(test.path)
		assert.Equal(t, test.match, ok, test.path)
	}
}
