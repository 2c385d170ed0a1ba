package session

import "context"

const tmuxBin = "tmux"

// Tmux drives a tmux session.
type Tmux struct {
	name   string
	runner Runner
}

func (t *Tmux) Name() string {
	return t.name
}

func (t *Tmux) Notify(ctx context.Context, text string) error {
	return t.sendKeys(ctx, sayCommand+text)
}

func (t *Tmux) Stop(ctx context.Context) error {
	return t.sendKeys(ctx, stopCommand)
}

func (t *Tmux) Launch(ctx context.Context, spec LaunchSpec) error {
	args := []string{"new-session", "-d", "-s", t.name}
	if spec.Dir != "" {
		args = append(args, "-c", spec.Dir)
	}
	args = append(args, spec.Argv...)
	out, err := t.runner.Run(ctx, spec.Dir, tmuxBin, args...)
	return classify(err, out)
}

// sendKeys types line literally, then presses Enter.
func (t *Tmux) sendKeys(ctx context.Context, line string) error {
	out, err := t.runner.Run(ctx, "", tmuxBin, "send-keys", "-t", t.name, "-l", line)
	if err == nil {
		out, err = t.runner.Run(ctx, "", tmuxBin, "send-keys", "-t", t.name, "Enter")
	}
	return classify(err, out, "can't find session", "no server running")
}
