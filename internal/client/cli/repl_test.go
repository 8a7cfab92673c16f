package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	arg   string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return nil
}
func (f *fakeExec) Verify(ctx context.Context, token string) error {
	f.calls = append(f.calls, "verify")
	f.arg = token
	return nil
}
func (f *fakeExec) Resend(ctx context.Context) error { f.calls = append(f.calls, "resend"); return nil }
func (f *fakeExec) WhoAmI(ctx context.Context) error { f.calls = append(f.calls, "whoami"); return nil }
func (f *fakeExec) Status(ctx context.Context) error { f.calls = append(f.calls, "status"); return nil }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			parts = append(parts, v.(string))
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func run(t *testing.T, exec *fakeExec, input ...string) {
	t.Helper()
	reader := bufio.NewReader(strings.NewReader(strings.Join(input, "\n")))
	runREPL(context.Background(), exec, func() string { return "(offline)" }, reader)
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)
	exec := &fakeExec{}

	run(t, exec, "register", "verify abc", "login", "", "whoami", "status", "resend", "logout", "exit", "login")

	assert.Equal(t, []string{"register", "verify", "login", "whoami", "status", "resend", "logout"}, exec.calls)
	assert.Equal(t, "abc", exec.arg)
}

func TestRunREPL_HelpDependsOnSession(t *testing.T) {
	out := captureOutput(t)
	exec := &fakeExec{}

	run(t, exec, "help", "login", "help", "quit")

	var help []string
	for _, l := range *out {
		if strings.HasPrefix(l, "Available commands") {
			help = append(help, l)
		}
	}
	if assert.Len(t, help, 2) {
		assert.Contains(t, help[0], "register")
		assert.Contains(t, help[1], "logout")
	}
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	out := captureOutput(t)
	exec := &fakeExec{}

	run(t, exec, "verify", "frobnicate", "exit")

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Usage: verify <token>")
	assert.Contains(t, *out, "Unknown command: frobnicate")
	assert.Contains(t, *out, "Bye!")
	assert.Contains(t, *out, "ak (offline)> ")
}

func TestRunREPL_StopsOnEOFAndCancel(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{}
	run(t, exec, "whoami")
	assert.Equal(t, []string{"whoami"}, exec.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec = &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, bufio.NewReader(strings.NewReader("whoami\n")))
	assert.Empty(t, exec.calls)
}
