package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	Configure("debug", "")
	assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())

	Configure("release", "")
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())

	Configure("release", "warn")
	assert.Equal(t, zerolog.WarnLevel, Log.GetLevel())

	Configure("release", "shouting")
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())
}

func TestNewWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Info().Int64("product_id", 7).Msg("forecast ready")

	assert.Contains(t, buf.String(), `"product_id":7`)
	assert.Contains(t, buf.String(), `"message":"forecast ready"`)
	assert.Contains(t, buf.String(), `"caller"`)
}
