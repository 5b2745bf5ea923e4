package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, s := range []string{
		"level=DEBUG", "msg=dbg", "a=1",
		"level=INFO", "msg=inf", "b=2",
		"level=WARN", "msg=wrn", "c=3",
		"level=ERROR", "msg=err", "d=4",
	} {
		assert.Contains(t, out, s)
	}
}

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true, slog.LevelInfo).With("component", "horta")

	log.Info(context.Background(), "hello", "k", "v")
	log.Debug(context.Background(), "hidden")

	out := buf.String()
	assert.Contains(t, out, `"component":"horta"`)
	assert.Contains(t, out, `"k":"v"`)
	assert.NotContains(t, out, "hidden")
}

func TestDiscard(t *testing.T) {
	Discard().Error(context.TODO(), "nothing to see")
}
