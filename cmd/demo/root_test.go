package demo

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/crusher/lib/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkthrough(t *testing.T) {
	b, err := broker.New(filepath.Join(t.TempDir(), "test_crusher"), &broker.Options{Seed: 5, Out: io.Discard})
	require.NoError(t, err)

	var out bytes.Buffer
	Walkthrough(b, &out)

	assert.Equal(t, "(\"by\", \"jove\")\n(\"by\", \"jove\")\nNot found\n", out.String())
	assert.Equal(t, uint64(7), b.Ops())
}
