package session

//go:generate go run go.uber.org/mock/mockgen -package session -destination=runner_mock.go -source=./runner.go -build_flags=-mod=mod

import (
	"context"
	"fmt"
	"os/exec"
)

// Runner executes a multiplexer command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w", cmd.String(), err)
	}
	return out, nil
}
