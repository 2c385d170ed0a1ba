package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	mcerrors "github.com/mcupdater/mcupdater/internal/errors"
)

const (
	// CountdownTotal is the warning players get before the server stops.
	CountdownTotal = 30 * time.Second
	// StopGrace is how long the server gets to save and exit after "stop".
	StopGrace = 5 * time.Second

	coarseStep = 10 * time.Second
	fineStep   = time.Second
)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Countdown warns players, then stops the server. Delivery is best effort:
// a missing session is logged and the countdown carries on.
type Countdown struct {
	sleep Sleeper
}

func NewCountdown() *Countdown {
	return &Countdown{sleep: SleepWithContext}
}

// WithSleeper replaces the clock, used by tests.
func (c *Countdown) WithSleeper(s Sleeper) *Countdown {
	c.sleep = s
	return c
}

// Announce broadcasts the shutdown countdown. It returns after CountdownTotal,
// or early with ctx's error.
func (c *Countdown) Announce(ctx context.Context, sess Session) error {
	n := &notifier{sess: sess}

	total := int(CountdownTotal / time.Second)
	n.notify(ctx, fmt.Sprintf("ATTENTION: Server will shutdown temporarily to update in %d seconds.", total))
	log.WithContext(ctx).Infof("Shutting down server in %d seconds.", total)

	// 30s: two ten-second steps down to 10, then every second down to 1.
	remaining := CountdownTotal
	for remaining > coarseStep {
		if err := c.sleep(ctx, coarseStep); err != nil {
			return err
		}
		remaining -= coarseStep
		n.notify(ctx, shutdownIn(remaining))
	}
	for remaining > fineStep {
		if err := c.sleep(ctx, fineStep); err != nil {
			return err
		}
		remaining -= fineStep
		n.notify(ctx, shutdownIn(remaining))
	}

	return c.sleep(ctx, remaining)
}

// Shutdown issues the stop command and waits StopGrace for the server to exit.
func (c *Countdown) Shutdown(ctx context.Context, sess Session) error {
	log.WithContext(ctx).Info("Stopping server.")
	if err := sess.Stop(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		warnUndelivered(ctx, sess, err)
	}
	return c.sleep(ctx, StopGrace)
}

func shutdownIn(remaining time.Duration) string {
	return fmt.Sprintf("Shutdown in %d seconds", int(remaining/time.Second))
}

type notifier struct {
	sess   Session
	warned bool
}

func (n *notifier) notify(ctx context.Context, text string) {
	err := n.sess.Notify(ctx, text)
	if err == nil || n.warned || ctx.Err() != nil {
		return
	}
	n.warned = true
	warnUndelivered(ctx, n.sess, err)
}

func warnUndelivered(ctx context.Context, sess Session, err error) {
	if errors.Is(err, mcerrors.ErrSessionUnavailable) {
		log.WithContext(ctx).Warnf("session %s is not running, continuing without it: %v", sess.Name(), err)
		return
	}
	log.WithContext(ctx).Warnf("failed to send to session %s, continuing: %v", sess.Name(), err)
}
