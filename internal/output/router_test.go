package output

import (
	"errors"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNoteSink struct {
	name    string
	got     []NoteEvent
	failing bool
}

func (f *fakeNoteSink) Name() string { return f.name }
func (f *fakeNoteSink) SendNote(n NoteEvent) error {
	if f.failing {
		return errors.New("boom")
	}
	f.got = append(f.got, n)
	return nil
}

func TestRouterPublishReachesAllSinksDespiteOneFailing(t *testing.T) {
	r := NewRouter(testr.New(t))
	ok := &fakeNoteSink{name: "ok"}
	bad := &fakeNoteSink{name: "bad", failing: true}
	r.RegisterNoteSink(ok)
	r.RegisterNoteSink(bad)

	require.NoError(t, r.PublishNote(NoteEvent{Midi: 60, Velocity: 0.5, DurS: 0.2}))
	assert.Len(t, ok.got, 1, "a failing sink must not prevent delivery to the others")
}

func TestRouterHasReadySink(t *testing.T) {
	r := NewRouter(testr.New(t))
	assert.False(t, r.HasReadySink())
	r.RegisterNoteSink(&fakeNoteSink{name: "a"})
	assert.True(t, r.HasReadySink())
}

func TestRouterPublishAfterCloseReturnsError(t *testing.T) {
	r := NewRouter(testr.New(t))
	r.Close()
	err := r.PublishNote(NoteEvent{})
	assert.ErrorIs(t, err, ErrRouterClosed)
}
