package simerr

import (
	"bytes"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(11, 13))
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf, newRand())

	assert.True(t, tr.Hit("multi\nline", 0))
	tr.Fix("handled\nit")
	require.NoError(t, tr.Close())

	assert.Equal(t,
		"Hit error 1 in function multi line.\n"+
			"Error fix [1/1]: handled it\n"+
			"\n\nSummary: Fixed 1/1\n",
		buf.String())
}

func TestRecord(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf, newRand())

	tr.Record("FETCH\t1")
	tr.Record("REMOVE\t2")
	tr.Fix("reported")
	assert.Equal(t, 2, tr.Errors())
	assert.Equal(t, 1, tr.Fixed())
	require.NoError(t, tr.Close())

	assert.Equal(t,
		"Hit error 1 in function FETCH\t1.\n"+
			"Hit error 2 in function REMOVE\t2.\n"+
			"Error fix [1/2]: reported\n"+
			"\n\nSummary: Fixed 1/2\n",
		buf.String())
}

func TestHitProbability(t *testing.T) {
	tr := New(&bytes.Buffer{}, newRand())

	// one line functions practically never fail
	for i := 0; i < 1_000; i++ {
		tr.Hit("short", 1)
	}
	assert.LessOrEqual(t, tr.Errors(), 1)

	// 1000 lines always fail
	for i := 0; i < 100; i++ {
		assert.True(t, tr.Hit("huge", 1_000))
	}

	// 500 lines fail a quarter of the time
	before := tr.Errors()
	for i := 0; i < 10_000; i++ {
		tr.Hit("medium", 500)
	}
	assert.InDelta(t, 2_500, tr.Errors()-before, 250)
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")

	for i := 0; i < 2; i++ {
		tr, err := Open(path, newRand())
		require.NoError(t, err)
		tr.Fix("again")
		require.NoError(t, tr.Close())
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(raw, []byte("Summary: Fixed 1/0")))
}
