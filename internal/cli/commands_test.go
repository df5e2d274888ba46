package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// seedSession registers three people, records two of them and force-sweeps
// the day.
func seedSession(t *testing.T, env *cliEnv) string {
	t.Helper()
	env.must(t, "person", "add", "Ada")
	env.must(t, "person", "add", "Bob")
	env.must(t, "person", "add", "Cy")
	env.must(t, "record", "Ada")
	env.must(t, "record", "Bob", "--channel", "manual", "--at", "2026-10-15 12:40:00")
	return env.must(t, "sweep", "--force")
}

func TestSessionTextOutput(t *testing.T) {
	env := newCLIEnv(t)
	g := newGolden(t)

	g.Assert(t, "sweep", []byte(seedSession(t, env)))
	g.Assert(t, "ledger_show", []byte(env.must(t, "ledger", "show")))
	g.Assert(t, "person_list", []byte(env.must(t, "person", "list")))
}

func TestRecord_Text(t *testing.T) {
	env := newCLIEnv(t)
	env.must(t, "person", "add", "Ada Lovelace")

	assert.Equal(t, "Ada Lovelace: present on 2026-10-15 via face\n", env.must(t, "record", "Ada Lovelace"))
	assert.Equal(t, "Ada Lovelace: already recorded present on 2026-10-15\n",
		env.must(t, "record", "Ada Lovelace", "--at", "2026-10-15 13:00:00"))
	assert.Equal(t, "Ada Lovelace: outside of policy window\n",
		env.must(t, "record", "Ada Lovelace", "--at", "2026-10-15 09:00:00"))
}

func TestRecord_JSON(t *testing.T) {
	env := newCLIEnv(t)
	env.must(t, "person", "add", "Ada")

	stdout := env.must(t, "--format", "json", "record", "Ada")

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Kind         string `json:"kind"`
			Person       string `json:"person"`
			Status       string `json:"status"`
			WasNewRecord bool   `json:"was_new_record"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "recorded", resp.Data.Kind)
	assert.Equal(t, "Ada", resp.Data.Person)
	assert.Equal(t, "present", resp.Data.Status)
	assert.True(t, resp.Data.WasNewRecord)
}

func TestRecord_Errors(t *testing.T) {
	env := newCLIEnv(t)
	env.must(t, "person", "add", "Ada")
	env.must(t, "person", "drop", "Ada")

	t.Run("unknown person", func(t *testing.T) {
		stdout, _, err := env.run(t, "record", "Zed")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.True(t, IsReported(err))
		assert.Equal(t, "Error [UNKNOWN_PERSON]: person is not on the roster (person=Zed)\n", stdout)
	})

	t.Run("dropped person json", func(t *testing.T) {
		stdout, _, err := env.run(t, "--format", "json", "record", "Ada")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INACTIVE_PERSON", resp.Error.Code)
	})

	t.Run("bad --at", func(t *testing.T) {
		_, _, err := env.run(t, "record", "Ada", "--at", "noon")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.False(t, IsReported(err))
		assert.Contains(t, err.Error(), `invalid --at "noon"`)
	})
}

func TestScan(t *testing.T) {
	env := newCLIEnv(t)
	env.must(t, "person", "add", "Ada")
	assert.Equal(t, "AA:BB -> Ada\n", env.must(t, "card", "link", "aa:bb", "Ada"))

	assert.Equal(t, "Ada: present on 2026-10-15 via rfid\n", env.must(t, "scan", "AA:BB"))

	stdout, _, err := env.run(t, "scan", "FF")
	require.Error(t, err)
	assert.Equal(t, "Error [CARD_NOT_FOUND]: no active link for card (card=FF)\n", stdout)
}

func TestSweep_WindowOpen(t *testing.T) {
	env := newCLIEnv(t)
	env.must(t, "person", "add", "Ada")

	stdout, _, err := env.run(t, "sweep")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Equal(t, "Error [E_WINDOW_OPEN]: attendance window for 2026-10-15 closes at 13:50:00; use --force to sweep now\n", stdout)

	// Once the window has closed no --force is needed.
	env.clock.Set(time.Date(2026, time.October, 15, 14, 0, 0, 0, time.UTC))
	assert.Equal(t, "sweep 2026-10-15: considered=1 absent=1 dropped=0\n  absent:  Ada\n", env.must(t, "sweep"))

	// A second sweep of the same day changes nothing.
	assert.Equal(t, "sweep 2026-10-15: considered=1 absent=0 dropped=0\n", env.must(t, "sweep", "2026-10-15"))

	_, _, err = env.run(t, "sweep", "15/10/2026")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSweep_DropsAfterThreshold(t *testing.T) {
	env := newCLIEnv(t)
	env.must(t, "person", "add", "Ada")

	// Monday, Thursday and Saturday are session days.
	env.must(t, "sweep", "2026-10-08")
	env.must(t, "sweep", "2026-10-10")
	stdout := env.must(t, "sweep", "2026-10-12")
	assert.Contains(t, stdout, "  dropped: Ada\n")

	assert.Contains(t, env.must(t, "person", "show", "Ada"), "Status:               dropped\n")
	assert.Equal(t, "Ada is now active\n", env.must(t, "person", "reactivate", "Ada"))
	assert.Contains(t, env.must(t, "person", "show", "Ada"), "Consecutive absences: 0\n")
}

func TestPersonLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	assert.Equal(t, "(no people)\n", env.must(t, "person", "list"))
	assert.Equal(t, "Registered Ada\n", env.must(t, "person", "add", "  Ada  "))

	stdout, _, err := env.run(t, "person", "add", "Ada")
	require.Error(t, err)
	assert.Contains(t, stdout, "Error [PERSON_EXISTS]")

	assert.Equal(t, "Ada is now dropped\n", env.must(t, "person", "drop", "Ada"))
	stdout, _, err = env.run(t, "person", "drop", "Ada")
	require.Error(t, err)
	assert.Contains(t, stdout, "Error [ALREADY_DROPPED]")

	assert.Contains(t, env.must(t, "person", "list", "--status", "dropped"), "Ada")
	assert.Equal(t, "(no people)\n", env.must(t, "person", "list", "--status", "active"))

	assert.Equal(t, "Ada is now active\n", env.must(t, "person", "reactivate", "Ada"))
	stdout, _, err = env.run(t, "person", "reactivate", "Ada")
	require.Error(t, err)
	assert.Contains(t, stdout, "Error [NOT_DROPPED]")
}

func TestPersonReset(t *testing.T) {
	env := newCLIEnv(t)
	env.must(t, "person", "add", "Ada")
	env.must(t, "person", "add", "Bob")

	assert.Equal(t, "Reset both counters for 1 people\n", env.must(t, "person", "reset", "Ada"))
	assert.Equal(t, "Reset total counters for 2 people\n", env.must(t, "person", "reset", "--all", "--counter", "total"))

	_, _, err := env.run(t, "person", "reset")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "give either a name or --all")

	_, _, err = env.run(t, "person", "reset", "Ada", "--all")
	require.Error(t, err)

	stdout, _, err := env.run(t, "person", "reset", "Ada", "--counter", "weekly")
	require.Error(t, err)
	assert.Contains(t, stdout, "Error [INVALID_ARGUMENT]")
}

func TestPersonImport(t *testing.T) {
	env := newCLIEnv(t)
	dir := t.TempDir()
	for _, name := range []string{"Ada.jpg", "Bob.png", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	env.must(t, "person", "add", "Bob")

	stdout := env.must(t, "person", "import", dir)
	assert.Equal(t, "Imported 1 people (1 already on the roster)\n  + Ada\n", stdout)

	assert.Contains(t, env.must(t, "person", "show", "Ada"), "Image:")

	_, _, err := env.run(t, "person", "import", filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCards(t *testing.T) {
	env := newCLIEnv(t)
	env.must(t, "person", "add", "Ada")
	env.must(t, "person", "add", "Bob")
	assert.Equal(t, "(no cards)\n", env.must(t, "card", "list"))

	env.must(t, "card", "link", "C1", "Ada")
	assert.Equal(t, "Ada\n", env.must(t, "card", "resolve", "c1"))

	stdout, _, err := env.run(t, "--verbose", "card", "link", "C1", "Bob")
	require.Error(t, err)
	assert.Contains(t, stdout, "Error [CARD_ALREADY_LINKED]")
	assert.Contains(t, stdout, "linked_to:Ada")

	var resp struct {
		Data ResolveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(env.must(t, "--format", "json", "card", "resolve", "C1")), &resp))
	assert.Equal(t, ResolveResult{CardID: "C1", PersonName: "Ada"}, resp.Data)

	assert.Equal(t, "C1 unlinked from Ada\n", env.must(t, "card", "unlink", "C1"))
	assert.Contains(t, env.must(t, "card", "list"), "false")

	stdout, _, err = env.run(t, "card", "resolve", "C1")
	require.Error(t, err)
	assert.Contains(t, stdout, "Error [CARD_NOT_FOUND]")
}

func TestLedger(t *testing.T) {
	env := newCLIEnv(t)
	env.must(t, "person", "add", "Ada")

	assert.Equal(t, "Ledger for 2026-10-15: 0 present, 0 late, 0 absent\n(no records)\n", env.must(t, "ledger", "show"))
	assert.Equal(t, "(no sweeps)\n", env.must(t, "ledger", "sweeps"))

	env.must(t, "record", "Ada")
	env.must(t, "sweep", "2026-10-12")

	history := env.must(t, "ledger", "history", "Ada")
	assert.Equal(t,
		"2026-10-12  00:00:00  absent   system  Ada\n"+
			"2026-10-15  12:25:00  present  face    Ada\n",
		history)
	assert.Equal(t, "2026-10-15  12:25:00  present  face    Ada\n",
		env.must(t, "ledger", "history", "Ada", "--from", "2026-10-13"))

	sweeps := env.must(t, "ledger", "sweeps")
	assert.Contains(t, sweeps, "DATE")
	assert.Contains(t, sweeps, "2026-10-12")

	_, _, err := env.run(t, "ledger", "show", "tomorrow")
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	env := newCLIEnv(t)

	stdout := env.must(t, "config", "validate")
	assert.Contains(t, stdout, "Configuration valid\n")
	assert.Contains(t, stdout, "Policy: present 12:20:00-12:35:00, late until 13:50:00")
	assert.Contains(t, stdout, "tz UTC")
	assert.Contains(t, stdout, env.db)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("policy:\n  present_start: \"13:00\"\n  present_end: \"12:00\"\n"), 0644))
	_, _, err := env.run(t, "--config", bad, "config", "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
