package sync

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/sidkik/reverso/pkg/errors"
)

// EqualityPolicy decides whether an existing destination file differs from
// its source and so needs to be overwritten.
type EqualityPolicy int

const (
	// DeepCompare treats files as different if their sizes or the digests of
	// their contents differ.
	DeepCompare EqualityPolicy = iota

	// FastCompare only compares file sizes. Files with the same size are
	// considered equal, even if their contents differ.
	FastCompare

	// AlwaysDifferent overwrites every existing file on every run.
	AlwaysDifferent

	// NeverDifferent never overwrites existing files.
	NeverDifferent
)

var policyNames = map[EqualityPolicy]string{
	DeepCompare:     "deep",
	FastCompare:     "fast",
	AlwaysDifferent: "always",
	NeverDifferent:  "never",
}

func (policy EqualityPolicy) String() string {
	if name, ok := policyNames[policy]; ok {
		return name
	}
	return fmt.Sprintf("EqualityPolicy(%d)", int(policy))
}

// ParseEqualityPolicy parses the configuration name of a policy. The empty
// string selects DeepCompare.
func ParseEqualityPolicy(name string) (EqualityPolicy, error) {
	if name == "" {
		return DeepCompare, nil
	}

	for policy, policyName := range policyNames {
		if strings.EqualFold(name, policyName) {
			return policy, nil
		}
	}
	return 0, errors.New("unknown compare mode %q (expected one of always, never, fast, deep)", name)
}

// Different returns whether the files at `srcPath` and `destPath`, which must
// both exist, differ according to the policy.
func (policy EqualityPolicy) Different(srcPath, destPath string) (bool, error) {
	switch policy {
	case AlwaysDifferent:
		return true, nil
	case NeverDifferent:
		return false, nil
	case FastCompare, DeepCompare:
	default:
		return false, errors.New("unknown equality policy %d", int(policy))
	}

	srcInfo, err := fs.Stat(srcPath)
	if err != nil {
		return false, errors.WithContext(err, "stat source")
	}

	destInfo, err := fs.Stat(destPath)
	if err != nil {
		return false, errors.WithContext(err, "stat destination")
	}

	if srcInfo.Size() != destInfo.Size() {
		return true, nil
	}

	if policy == FastCompare {
		return false, nil
	}

	srcHash, err := HashFile(srcPath)
	if err != nil {
		return false, errors.WithContext(err, "hash source")
	}

	destHash, err := HashFile(destPath)
	if err != nil {
		return false, errors.WithContext(err, "hash destination")
	}
	return srcHash != destHash, nil
}

// HashFile returns the hex encoded md5 digest of the file at the given path.
func HashFile(path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", errors.WithContext(err, "open")
	}
	defer f.Close()

	hasher := md5.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", errors.WithContext(err, "read")
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
