package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSeed(t *testing.T) {
	// two draws from the system source colliding is practically impossible
	assert.NotEqual(t, GenerateSeed(), GenerateSeed())
}

func TestSplitSeed(t *testing.T) {
	a1, a2 := SplitSeed(1)
	b1, b2 := SplitSeed(1)
	assert.Equal(t, a1, b1)
	assert.Equal(t, a2, b2)

	_, c2 := SplitSeed(2)
	assert.NotEqual(t, a2, c2)
	assert.Equal(t, uint64(1), a1)
}
