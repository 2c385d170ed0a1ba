// Package session controls the terminal multiplexer session the game server
// runs in. Control is one-directional: text is typed into the session and
// nothing confirms that the server acted on it.
package session

import (
	"context"
	"fmt"
	"strings"

	mcerrors "github.com/mcupdater/mcupdater/internal/errors"
)

// Session is a named interactive session hosting the server console.
type Session interface {
	Name() string
	// Notify broadcasts text to the players on the server.
	Notify(ctx context.Context, text string) error
	// Stop asks the server to shut down.
	Stop(ctx context.Context) error
	// Launch starts a new detached session running spec.
	Launch(ctx context.Context, spec LaunchSpec) error
}

// LaunchSpec is the command a new session runs.
type LaunchSpec struct {
	Dir  string
	Argv []string
}

func (s LaunchSpec) String() string {
	return strings.Join(s.Argv, " ")
}

// JavaLaunch builds the server invocation. Memory values are used verbatim.
func JavaLaunch(dir, java, initMemory, maxMemory, jar string) LaunchSpec {
	return LaunchSpec{
		Dir: dir,
		Argv: []string{
			java, "-server",
			"-Xms" + initMemory,
			"-Xmx" + maxMemory,
			"-jar", jar, "nogui",
		},
	}
}

const (
	sayCommand  = "say "
	stopCommand = "stop"
)

// New returns the session backend for multiplexer ("screen" or "tmux").
func New(multiplexer, name string, runner Runner) (Session, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	switch multiplexer {
	case "screen":
		return &Screen{name: name, runner: runner}, nil
	case "tmux":
		return &Tmux{name: name, runner: runner}, nil
	default:
		return nil, fmt.Errorf("unsupported multiplexer %q", multiplexer)
	}
}

// classify marks failures caused by a missing session.
func classify(err error, out []byte, missingMarkers ...string) error {
	if err == nil {
		return nil
	}
	text := strings.ToLower(string(out))
	for _, m := range missingMarkers {
		if strings.Contains(text, m) {
			return fmt.Errorf("%w: %w: %s", mcerrors.ErrSessionUnavailable, err, strings.TrimSpace(string(out)))
		}
	}
	if out := strings.TrimSpace(string(out)); out != "" {
		return fmt.Errorf("%w: %s", err, out)
	}
	return err
}
