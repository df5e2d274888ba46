package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/testutil"
)

// Thursday, inside the present window of the default policy.
var thursdayPresent = time.Date(2026, time.October, 15, 12, 25, 0, 0, time.UTC)

// cliEnv runs commands against one temp database with a fixed clock.
type cliEnv struct {
	db    string
	clock *testutil.Clock
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv(config.EnvTimezone, "UTC")
	t.Setenv(config.EnvDB, "")
	t.Setenv(config.EnvDropThreshold, "")
	return &cliEnv{
		db:    filepath.Join(t.TempDir(), "rollcall.db"),
		clock: testutil.NewClock(thursdayPresent),
	}
}

// run executes the root command with --db prepended and returns stdout,
// stderr and the command error.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(&RootOptions{Clock: e.clock})
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--db", e.db}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// must runs a command that is expected to succeed.
func (e *cliEnv) must(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := e.run(t, args...)
	require.NoError(t, err, "args=%v stdout=%s stderr=%s", args, stdout, stderr)
	return stdout
}
