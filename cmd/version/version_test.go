package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/reverso/pkg/version"
)

func TestVersion(t *testing.T) {
	out := bytes.NewBuffer(nil)
	stdout = out

	New().Run(nil, nil)
	assert.Equal(t, "reverso version: "+version.EmptyValue+"\n", out.String())
}
