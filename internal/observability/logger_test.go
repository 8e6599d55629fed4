package observability

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	t.Run("filters below the minimum level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger("test", LevelWarn)
		l.SetOutput(&buf)

		l.Info("hidden")
		l.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "[WARN] test")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("fields are sorted and inherited", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger("test", LevelDebug)
		l.SetOutput(&buf)

		l.WithField("z", 1).WithFields(map[string]interface{}{"a": "x"}).WithError(errors.New("bad")).Debugf("n=%d", 2)

		assert.Contains(t, buf.String(), "n=2 a=x error=bad z=1")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}
