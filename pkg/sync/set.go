package sync

// PathSet is a set of relative paths that remembers the order in which the
// paths were added.
type PathSet struct {
	paths []string
	index map[string]struct{}
}

// NewPathSet returns a set containing `paths`. Duplicates are dropped.
func NewPathSet(paths ...string) PathSet {
	set := PathSet{index: map[string]struct{}{}}
	for _, p := range paths {
		set.Add(p)
	}
	return set
}

// Add inserts `path` at the end of the set if it's not already present.
func (set *PathSet) Add(path string) {
	if set.index == nil {
		set.index = map[string]struct{}{}
	}
	if _, ok := set.index[path]; ok {
		return
	}
	set.index[path] = struct{}{}
	set.paths = append(set.paths, path)
}

// Contains returns whether `path` is in the set.
func (set PathSet) Contains(path string) bool {
	_, ok := set.index[path]
	return ok
}

// Len returns the number of paths in the set.
func (set PathSet) Len() int {
	return len(set.paths)
}

// Paths returns the paths in insertion order.
func (set PathSet) Paths() []string {
	return append([]string(nil), set.paths...)
}

// Filter returns a new set with the paths for which `keep` returns true.
func (set PathSet) Filter(keep func(string) bool) PathSet {
	filtered := NewPathSet()
	for _, p := range set.paths {
		if keep(p) {
			filtered.Add(p)
		}
	}
	return filtered
}
