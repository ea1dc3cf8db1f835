package sync

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	files := map[string]string{
		"/src/a.txt":                   "a",
		"/src/b.log":                   "b",
		"/src/build/out.bin":           "bin",
		"/src/docs/readme.md":          "readme",
		"/src/docs/private/secret.txt": "secret",
		"/src/docs/private/keep.txt":   "keep",
	}

	everything := []string{
		"a.txt",
		"b.log",
		"build/out.bin",
		"build",
		"docs/private/keep.txt",
		"docs/private/secret.txt",
		"docs/private",
		"docs/readme.md",
		"docs",
	}

	tests := []struct {
		name     string
		filter   Filter
		expPaths []string
	}{
		{
			name:     "Wildcard",
			filter:   Filter{Include: MustCompilePatterns("*")},
			expPaths: everything,
		},
		{
			name:     "Root",
			filter:   Filter{Include: MustCompilePatterns(".")},
			expPaths: everything,
		},
		{
			name:   "IncludedDirectoryIncludesChildren",
			filter: Filter{Include: MustCompilePatterns("docs")},
			expPaths: []string{
				"docs/private/keep.txt",
				"docs/private/secret.txt",
				"docs/private",
				"docs/readme.md",
				"docs",
			},
		},
		{
			name: "ExcludePrunesSubtree",
			filter: Filter{
				Include: MustCompilePatterns("docs"),
				Exclude: MustCompilePatterns("docs/private"),
			},
			expPaths: []string{"docs/readme.md", "docs"},
		},
		{
			name: "RequireOverridesExclude",
			filter: Filter{
				Include: MustCompilePatterns("docs"),
				Exclude: MustCompilePatterns("docs/private*"),
				Require: MustCompilePatterns("docs/private", "docs/private/keep.txt"),
			},
			expPaths: []string{
				"docs/private/keep.txt",
				"docs/private",
				"docs/readme.md",
				"docs",
			},
		},
		{
			name:   "FilePatternsOnly",
			filter: Filter{Include: MustCompilePatterns("*.txt")},
			expPaths: []string{
				"a.txt",
				"docs/private/keep.txt",
				"docs/private/secret.txt",
			},
		},
		{
			name:     "EmptyInclude",
			filter:   Filter{},
			expPaths: nil,
		},
		{
			name: "ExcludeRoot",
			filter: Filter{
				Include: MustCompilePatterns("*"),
				Exclude: MustCompilePatterns("."),
			},
			expPaths: nil,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			setupFs(t, files)
			set, err := Collect("/src", test.filter)
			require.NoError(t, err)
			assert.Equal(t, test.expPaths, set.Paths())
		})
	}
}

func TestCollectAll(t *testing.T) {
	setupFs(t, map[string]string{
		"/dst/a.txt":       "a",
		"/dst/dir/b.txt":   "b",
		"/dst/dir/c.txt":   "c",
		"/dst/empty/.keep": "",
	})

	set, err := CollectAll("/dst")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"a.txt",
		"dir/b.txt",
		"dir/c.txt",
		"dir",
		"empty/.keep",
		"empty",
	}, set.Paths())
}

func TestCollectMissingRoot(t *testing.T) {
	setupFs(t, nil)
	_, err := Collect("/missing", Filter{Include: MustCompilePatterns("*")})
	assert.Error(t, err)
}

// unreadableDirFs fails to open a single directory.
type unreadableDirFs struct {
	afero.Fs
	unreadable string
}

func (f unreadableDirFs) Open(name string) (afero.File, error) {
	if name == f.unreadable {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Open(name)
}

func TestCollectUnreadableSubdirectory(t *testing.T) {
	setupFs(t, map[string]string{
		"/src/a.txt":         "a",
		"/src/locked/b.txt":  "b",
		"/src/z-after/c.txt": "c",
	})
	fs = unreadableDirFs{Fs: fs, unreadable: "/src/locked"}

	set, err := Collect("/src", Filter{Include: MustCompilePatterns("*")})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `read dir "/src/locked"`)
	assert.Zero(t, set.Len())
	assert.Nil(t, set.Paths())

	_, err = CollectAll("/src")
	assert.Error(t, err)
}
