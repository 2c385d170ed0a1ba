package session

import "context"

const screenBin = "screen"

// Screen drives a GNU screen session.
type Screen struct {
	name   string
	runner Runner
}

func (s *Screen) Name() string {
	return s.name
}

func (s *Screen) Notify(ctx context.Context, text string) error {
	return s.stuff(ctx, sayCommand+text)
}

func (s *Screen) Stop(ctx context.Context) error {
	return s.stuff(ctx, stopCommand)
}

func (s *Screen) Launch(ctx context.Context, spec LaunchSpec) error {
	args := append([]string{"-S", s.name, "-d", "-m"}, spec.Argv...)
	out, err := s.runner.Run(ctx, spec.Dir, screenBin, args...)
	return classify(err, out)
}

// stuff types line into the session's input followed by a carriage return.
func (s *Screen) stuff(ctx context.Context, line string) error {
	out, err := s.runner.Run(ctx, "", screenBin, "-S", s.name, "-X", "stuff", line+"\r")
	return classify(err, out, "no screen session found")
}
