package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := Commit
	t.Cleanup(func() { Commit = old })

	Commit = "0123456789abcdef"
	assert.Equal(t, "dev (commit: 0123456, built: unknown)", String())

	Commit = "abc"
	assert.Equal(t, "dev (commit: abc, built: unknown)", String())
}
