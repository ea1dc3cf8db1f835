package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlan(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		dirs     []string
		included []string
		policy   EqualityPolicy
		expPlan  Plan
	}{
		{
			name: "EmptyDestination",
			files: map[string]string{
				"/src/a.txt": "X",
				"/src/b.txt": "Y",
			},
			dirs:     []string{"/dst"},
			included: []string{"a.txt", "b.txt"},
			expPlan:  Plan{Add: []string{"a.txt", "b.txt"}},
		},
		{
			name: "AlwaysDifferent",
			files: map[string]string{
				"/src/a.txt": "X",
				"/dst/a.txt": "old",
				"/dst/b.txt": "stale",
			},
			included: []string{"a.txt"},
			policy:   AlwaysDifferent,
			expPlan: Plan{
				Overwrite: []string{"a.txt"},
				Remove:    []string{"b.txt"},
			},
		},
		{
			name: "EqualFilesAreSkipped",
			files: map[string]string{
				"/src/same.txt":    "same",
				"/dst/same.txt":    "same",
				"/src/changed.txt": "new",
				"/dst/changed.txt": "old",
			},
			included: []string{"changed.txt", "same.txt"},
			policy:   DeepCompare,
			expPlan:  Plan{Overwrite: []string{"changed.txt"}},
		},
		{
			name: "NeverDifferent",
			files: map[string]string{
				"/src/a.txt": "new",
				"/dst/a.txt": "old contents",
			},
			included: []string{"a.txt"},
			policy:   NeverDifferent,
			expPlan:  Plan{},
		},
		{
			name: "DirectoriesAreNotPlanned",
			files: map[string]string{
				"/src/dir/a.txt":   "a",
				"/dst/stale/b.txt": "b",
			},
			included: []string{"dir/a.txt", "dir"},
			expPlan: Plan{
				Add:    []string{"dir/a.txt"},
				Remove: []string{"stale/b.txt", "stale"},
			},
		},
		{
			name: "StagingFilesAreRemoved",
			files: map[string]string{
				"/src/a.txt":                     "a",
				"/dst/a.txt":                     "a",
				"/dst/a.txt" + NewContentsSuffix: "a",
				"/dst/b.txt" + OldContentsSuffix: "b",
			},
			included: []string{"a.txt"},
			expPlan: Plan{
				Remove: []string{"a.txt" + NewContentsSuffix, "b.txt" + OldContentsSuffix},
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			setupFs(t, test.files, test.dirs...)

			destExisting, err := CollectAll("/dst")
			require.NoError(t, err)

			plan, err := BuildPlan("/src", "/dst", NewPathSet(test.included...),
				destExisting, test.policy)
			require.NoError(t, err)
			assert.Equal(t, test.expPlan, plan)
			assertDisjoint(t, plan)
		})
	}
}

func TestBuildPlanCompareError(t *testing.T) {
	setupFs(t, map[string]string{"/src/a.txt": "a"}, "/dst")

	// The destination listing claims a.txt exists, but it can't be read.
	_, err := BuildPlan("/src", "/dst", NewPathSet("a.txt"), NewPathSet("a.txt"), DeepCompare)
	assert.Error(t, err)
}

func TestBuildPlanMissingSource(t *testing.T) {
	setupFs(t, nil, "/src", "/dst")

	_, err := BuildPlan("/src", "/dst", NewPathSet("gone.txt"), NewPathSet(), DeepCompare)
	assert.Error(t, err)
}

func assertDisjoint(t *testing.T, plan Plan) {
	seen := map[string]string{}
	lists := map[string][]string{
		"add":       plan.Add,
		"overwrite": plan.Overwrite,
		"remove":    plan.Remove,
	}
	for name, list := range lists {
		for _, entry := range list {
			if other, ok := seen[entry]; ok {
				t.Errorf("%q is in both %s and %s", entry, other, name)
			}
			seen[entry] = name
		}
	}
}

func TestIsStagingFile(t *testing.T) {
	assert.True(t, IsStagingFile("dir/a.txt"+NewContentsSuffix))
	assert.True(t, IsStagingFile("a.txt"+OldContentsSuffix))
	assert.False(t, IsStagingFile("a.txt"))
}
