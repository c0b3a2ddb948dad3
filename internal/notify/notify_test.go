package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johnrirwin/bizregistry/internal/logging"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Notify(context.Background(), Success("Business updated"))
	c.Notify(context.Background(), Danger("No connection to the server"))

	assert.Equal(t, "✔ Business updated\n✖ No connection to the server\n", buf.String())
}

func TestMultiAndRecorder(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, b, NewLog(logging.NewNop())}.Notify(context.Background(), Warning("2 files rejected"))

	last, ok := a.Last()
	assert.True(t, ok)
	assert.Equal(t, SeverityWarning, last.Severity)
	assert.Equal(t, DefaultDuration, last.Duration)
	assert.Len(t, b.All(), 1)

	_, ok = (&Recorder{}).Last()
	assert.False(t, ok)
}
