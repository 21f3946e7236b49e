package store

import (
	"testing"

	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMatching(t *testing.T) {
	err := NotFound(value.Text("k"))
	assert.Equal(t, `crusher error (code NotFound): "k"`, err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConfig)

	wrapped := errors.Wrap(err, "fetching")
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConfigError(wrapped))

	cfg := ConfigErrorf("bad target %d", 9)
	assert.True(t, IsConfigError(cfg))
	assert.Equal(t, "crusher error (code ConfigError): bad target 9", cfg.Error())
}

func TestRetCodeString(t *testing.T) {
	assert.Equal(t, "SnapshotMissing", RetCSnapshotMissing.String())
	assert.Equal(t, "Unknown", RetCode(42).String())
}
