package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mcerrors "github.com/mcupdater/mcupdater/internal/errors"
)

type invocation struct {
	dir  string
	name string
	args []string
}

type fakeRunner struct {
	invocations []invocation
	out         []byte
	err         error
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	f.invocations = append(f.invocations, invocation{dir: dir, name: name, args: args})
	return f.out, f.err
}

func TestScreen(t *testing.T) {
	runner := &fakeRunner{}
	sess, err := New("screen", "minecraft_survival", runner)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sess.Notify(ctx, "Shutdown in 9 seconds"))
	require.NoError(t, sess.Stop(ctx))
	require.NoError(t, sess.Launch(ctx, JavaLaunch("/srv/survival", "java", "1G", "4G", "minecraft_server.jar")))

	require.Len(t, runner.invocations, 3)
	assert.Equal(t, invocation{
		name: "screen",
		args: []string{"-S", "minecraft_survival", "-X", "stuff", "say Shutdown in 9 seconds\r"},
	}, runner.invocations[0])
	assert.Equal(t, invocation{
		name: "screen",
		args: []string{"-S", "minecraft_survival", "-X", "stuff", "stop\r"},
	}, runner.invocations[1])
	assert.Equal(t, invocation{
		dir:  "/srv/survival",
		name: "screen",
		args: []string{"-S", "minecraft_survival", "-d", "-m", "java", "-server", "-Xms1G", "-Xmx4G", "-jar", "minecraft_server.jar", "nogui"},
	}, runner.invocations[2])
}

func TestScreen_MissingSession(t *testing.T) {
	runner := &fakeRunner{out: []byte("No screen session found.\n"), err: errors.New("exit status 1")}
	sess, err := New("screen", "minecraft_survival", runner)
	require.NoError(t, err)

	err = sess.Notify(context.Background(), "hello")
	require.ErrorIs(t, err, mcerrors.ErrSessionUnavailable)

	err = sess.Launch(context.Background(), LaunchSpec{Argv: []string{"java"}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, mcerrors.ErrSessionUnavailable)
}

func TestTmux(t *testing.T) {
	runner := &fakeRunner{}
	sess, err := New("tmux", "mc", runner)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sess.Notify(ctx, "hi"))
	require.NoError(t, sess.Launch(ctx, JavaLaunch("/srv/mc", "/usr/bin/java", "2G", "8G", "minecraft_server.jar")))

	require.Len(t, runner.invocations, 3)
	assert.Equal(t, []string{"send-keys", "-t", "mc", "-l", "say hi"}, runner.invocations[0].args)
	assert.Equal(t, []string{"send-keys", "-t", "mc", "Enter"}, runner.invocations[1].args)
	assert.Equal(t, []string{"new-session", "-d", "-s", "mc", "-c", "/srv/mc",
		"/usr/bin/java", "-server", "-Xms2G", "-Xmx8G", "-jar", "minecraft_server.jar", "nogui"}, runner.invocations[2].args)
}

func TestTmux_MissingSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	// Enter is not sent after a failed send-keys.
	runner.EXPECT().
		Run(gomock.Any(), "", "tmux", "send-keys", "-t", "mc", "-l", "stop").
		Return([]byte("can't find session: mc\n"), errors.New("exit status 1")).
		Times(1)

	sess, err := New("tmux", "mc", runner)
	require.NoError(t, err)
	require.ErrorIs(t, sess.Stop(context.Background()), mcerrors.ErrSessionUnavailable)
}

func TestScreen_Stop(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), "", "screen", "-S", "minecraft_survival", "-X", "stuff", "stop\r").
		Return(nil, nil)

	sess, err := New("screen", "minecraft_survival", runner)
	require.NoError(t, err)
	require.NoError(t, sess.Stop(context.Background()))
}

func TestNew_Unsupported(t *testing.T) {
	_, err := New("zellij", "mc", nil)
	require.Error(t, err)
}

func TestLaunchSpecString(t *testing.T) {
	spec := JavaLaunch("/srv", "java", "1G", "4G", "minecraft_server.jar")
	assert.Equal(t, "java -server -Xms1G -Xmx4G -jar minecraft_server.jar nogui", spec.String())
}
