package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/policy"
)

// clearEnv blanks every override so host settings do not leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDB, EnvHTTPAddr, EnvTimezone, EnvRetryAttempts, EnvDropThreshold} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	f, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), f)

	p, err := f.BuildPolicy()
	require.NoError(t, err)
	assert.Equal(t, policy.Clock3(12, 20, 0), p.PresentStart)
	assert.Equal(t, policy.Clock3(12, 35, 0), p.PresentEnd)
	assert.Equal(t, policy.Clock3(13, 50, 0), p.LateEnd)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Monday, time.Thursday, time.Saturday}, p.AllowedDays)
	assert.Equal(t, 3, p.DropThreshold)
	assert.Equal(t, policy.DropOnConsecutive, p.DropOn)

	r, err := f.EngineRetry()
	require.NoError(t, err)
	assert.Equal(t, 3, r.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, r.Backoff)

	busy, err := f.BusyTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, busy)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)

	f, err := Load("testdata/valid.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/rollcall/attendance.db", f.Database.Path)
	assert.Equal(t, "127.0.0.1:9090", f.HTTP.Addr)

	p, err := f.BuildPolicy()
	require.NoError(t, err)
	assert.Equal(t, policy.Clock3(9, 0, 30), p.LateEnd)
	assert.Len(t, p.AllowedDays, 5)
	assert.Equal(t, time.UTC, p.Location)
	assert.Equal(t, 5, p.DropThreshold)
	assert.Equal(t, policy.DropOnTotal, p.DropOn)

	r, err := f.EngineRetry()
	require.NoError(t, err)
	assert.Equal(t, 4, r.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, r.Backoff)
}

func TestLoad_PartialFillsDefaults(t *testing.T) {
	clearEnv(t)

	f, err := Load("testdata/partial.yaml")
	require.NoError(t, err)
	assert.Equal(t, "UTC", f.Policy.Timezone)
	assert.Equal(t, "12:20", f.Policy.PresentStart)
	assert.Equal(t, "rollcall.db", f.Database.Path)
	assert.NoError(t, f.Validate())
}

func TestLoad_EmptyYAML(t *testing.T) {
	clearEnv(t)

	f, err := Load("testdata/empty.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), f)
}

func TestLoad_CUE(t *testing.T) {
	clearEnv(t)

	f, err := Load("testdata/valid.cue")
	require.NoError(t, err)

	p, err := f.BuildPolicy()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, p.AllowedDays)
	assert.Equal(t, 2, p.DropThreshold)
	assert.Equal(t, policy.DropOnConsecutive, p.DropOn, "omitted drop_on takes the default")
	assert.Equal(t, 5, f.Retry.Attempts)
}

func TestLoad_Rejects(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		path    string
		errPart string
	}{
		{"testdata/unknown_field.yaml", "present_strt"},
		{"testdata/bad_time.yaml", "present_start"},
		{"testdata/unknown_field.cue", "drop_after"},
		{"testdata/config.toml", "unsupported extension"},
		{"testdata/missing.yaml", "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestBuildPolicy_Invalid(t *testing.T) {
	clearEnv(t)

	f, err := Load("testdata/bad_order.yaml")
	require.NoError(t, err, "ordering is checked when the policy is built")

	_, err = f.BuildPolicy()
	require.Error(t, err)
	assert.True(t, errors.Is(err, policy.ErrInvalid))

	tests := []struct {
		name   string
		mutate func(*File)
	}{
		{"unknown weekday", func(f *File) { f.Policy.AllowedDays = []string{"someday"} }},
		{"duplicate weekday", func(f *File) { f.Policy.AllowedDays = []string{"mon", "Monday"} }},
		{"unknown timezone", func(f *File) { f.Policy.Timezone = "Mars/Olympus" }},
		{"bad late_end", func(f *File) { f.Policy.LateEnd = "1pm" }},
		{"zero threshold", func(f *File) { f.Policy.DropThreshold = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Default()
			f.Policy.Timezone = "UTC"
			tt.mutate(&f)
			_, err := f.BuildPolicy()
			assert.ErrorIs(t, err, policy.ErrInvalid)
			assert.Error(t, f.Validate())
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDB, "/tmp/override.db")
	t.Setenv(EnvHTTPAddr, ":9999")
	t.Setenv(EnvTimezone, "UTC")
	t.Setenv(EnvRetryAttempts, "7")
	t.Setenv(EnvDropThreshold, "not-a-number")

	f, err := Load("testdata/valid.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", f.Database.Path)
	assert.Equal(t, ":9999", f.HTTP.Addr)
	assert.Equal(t, "UTC", f.Policy.Timezone)
	assert.Equal(t, 7, f.Retry.Attempts)
	assert.Equal(t, 5, f.Policy.DropThreshold, "invalid override keeps the file value")
}

func TestEngineRetry_Invalid(t *testing.T) {
	f := Default()
	f.Retry.Backoff = "soon"
	_, err := f.EngineRetry()
	assert.Error(t, err)

	f = Default()
	f.Retry.Attempts = -1
	_, err = f.EngineRetry()
	assert.Error(t, err)
}

func TestEnvInt(t *testing.T) {
	t.Setenv("ROLLCALL_TEST_INT", "12")
	assert.Equal(t, 12, envInt("ROLLCALL_TEST_INT", 3))

	t.Setenv("ROLLCALL_TEST_INT", "-4")
	assert.Equal(t, 3, envInt("ROLLCALL_TEST_INT", 3))

	t.Setenv("ROLLCALL_TEST_INT", "")
	assert.Equal(t, 3, envInt("ROLLCALL_TEST_INT", 3))
}
