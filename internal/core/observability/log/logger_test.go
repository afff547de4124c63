package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestToZapFields(t *testing.T) {
	fields := toZapFields(
		String("s", "v"),
		Int("i", 1),
		Float64("f", 1.5),
		Uint64("u", 2),
		Error(errors.New("boom")),
	)
	require.Len(t, fields, 5)
	assert.Equal(t, zap.String("s", "v"), fields[0])
	assert.Equal(t, zap.Int("i", 1), fields[1])
	assert.Equal(t, zap.Float64("f", 1.5), fields[2])
	assert.Equal(t, zap.Uint64("u", 2), fields[3])
}

func TestNilErrorFieldIsSkipped(t *testing.T) {
	fields := toZapFields(Error(nil))
	require.Len(t, fields, 1)
	assert.Equal(t, zap.Skip(), fields[0])

	assert.NotPanics(t, func() {
		Nop().Warn("write failed", Error(nil))
	})
}

func TestNopDiscardsEverything(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Debug("a")
		l.Info("b", String("k", "v"))
		l.Error("c", Error(errors.New("boom")))
	})
}
