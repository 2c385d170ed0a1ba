package session

import (
	"context"
	"sync"

	mcerrors "github.com/mcupdater/mcupdater/internal/errors"
)

type CallKind string

const (
	CallNotify CallKind = "notify"
	CallStop   CallKind = "stop"
	CallLaunch CallKind = "launch"
)

type Call struct {
	Kind   CallKind
	Text   string
	Launch LaunchSpec
}

// Recorder is an in-memory Session that records every call.
type Recorder struct {
	mu    sync.Mutex
	name  string
	calls []Call

	// Unavailable makes Notify and Stop behave as if the session did not exist.
	Unavailable bool
	// LaunchErr is returned by Launch.
	LaunchErr error
}

func NewRecorder(name string) *Recorder {
	return &Recorder{name: name}
}

func (r *Recorder) Name() string {
	return r.name
}

func (r *Recorder) Notify(_ context.Context, text string) error {
	return r.record(Call{Kind: CallNotify, Text: text})
}

func (r *Recorder) Stop(_ context.Context) error {
	return r.record(Call{Kind: CallStop})
}

func (r *Recorder) Launch(_ context.Context, spec LaunchSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Kind: CallLaunch, Launch: spec})
	return r.LaunchErr
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if r.Unavailable {
		return mcerrors.ErrSessionUnavailable
	}
	return nil
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Messages returns the texts of all Notify calls.
func (r *Recorder) Messages() []string {
	var out []string
	for _, c := range r.Calls() {
		if c.Kind == CallNotify {
			out = append(out, c.Text)
		}
	}
	return out
}
