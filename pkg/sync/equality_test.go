package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualityPolicyDifferent(t *testing.T) {
	files := map[string]string{
		"/src/same":     "contents",
		"/dst/same":     "contents",
		"/src/samesize": "contents",
		"/dst/samesize": "Contents",
		"/src/diffsize": "contents",
		"/dst/diffsize": "longer contents",
	}

	tests := []struct {
		policy      EqualityPolicy
		expSame     bool
		expSameSize bool
		expDiffSize bool
	}{
		{policy: AlwaysDifferent, expSame: true, expSameSize: true, expDiffSize: true},
		{policy: NeverDifferent, expSame: false, expSameSize: false, expDiffSize: false},
		{policy: FastCompare, expSame: false, expSameSize: false, expDiffSize: true},
		{policy: DeepCompare, expSame: false, expSameSize: true, expDiffSize: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.policy.String(), func(t *testing.T) {
			setupFs(t, files)
			check := func(name string, exp bool) {
				different, err := test.policy.Different("/src/"+name, "/dst/"+name)
				require.NoError(t, err)
				assert.Equal(t, exp, different, name)
			}

			check("same", test.expSame)
			check("samesize", test.expSameSize)
			check("diffsize", test.expDiffSize)
		})
	}
}

func TestDeepCompareSingleByte(t *testing.T) {
	contents := make([]byte, 64*1024)
	for i := range contents {
		contents[i] = byte(i)
	}
	changed := append([]byte(nil), contents...)
	changed[40000] ^= 0x01

	setupFs(t, map[string]string{
		"/src/blob":    string(contents),
		"/dst/same":    string(contents),
		"/dst/changed": string(changed),
	})

	different, err := DeepCompare.Different("/src/blob", "/dst/same")
	require.NoError(t, err)
	assert.False(t, different)

	different, err = DeepCompare.Different("/src/blob", "/dst/changed")
	require.NoError(t, err)
	assert.True(t, different)

	// Fast compare can't tell the files apart.
	different, err = FastCompare.Different("/src/blob", "/dst/changed")
	require.NoError(t, err)
	assert.False(t, different)
}

func TestEqualityPolicyErrors(t *testing.T) {
	setupFs(t, map[string]string{"/src/file": "contents"})

	_, err := DeepCompare.Different("/src/file", "/dst/missing")
	assert.Error(t, err)

	_, err = FastCompare.Different("/src/missing", "/dst/file")
	assert.Error(t, err)
}

func TestParseEqualityPolicy(t *testing.T) {
	tests := []struct {
		name      string
		expPolicy EqualityPolicy
		expErr    bool
	}{
		{name: "", expPolicy: DeepCompare},
		{name: "deep", expPolicy: DeepCompare},
		{name: "fast", expPolicy: FastCompare},
		{name: "Always", expPolicy: AlwaysDifferent},
		{name: "never", expPolicy: NeverDifferent},
		{name: "sometimes", expErr: true},
	}

	for _, test := range tests {
		policy, err := ParseEqualityPolicy(test.name)
		if test.expErr {
			assert.Error(t, err, test.name)
			continue
		}
		assert.NoError(t, err, test.name)
		assert.Equal(t, test.expPolicy, policy, test.name)
	}
}

func TestHashFile(t *testing.T) {
	setupFs(t, map[string]string{"/file": "hello"})

	hash, err := HashFile("/file")
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", hash)
}
