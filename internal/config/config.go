// Package config loads rollcall settings from YAML or CUE files, validates
// them against an embedded CUE schema and applies environment overrides.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/policy"
)

//go:embed schema.cue
var schemaCUE []byte

// File is the on-disk configuration.
type File struct {
	Database DatabaseConfig `yaml:"database" json:"database"`
	Policy   PolicyConfig   `yaml:"policy" json:"policy"`
	Retry    RetryConfig    `yaml:"retry" json:"retry"`
	HTTP     HTTPConfig     `yaml:"http" json:"http"`
}

type DatabaseConfig struct {
	Path        string `yaml:"path" json:"path,omitempty"`
	BusyTimeout string `yaml:"busy_timeout" json:"busy_timeout,omitempty"`
}

// PolicyConfig mirrors policy.Policy with textual times and weekday names.
type PolicyConfig struct {
	PresentStart  string   `yaml:"present_start" json:"present_start,omitempty"`
	PresentEnd    string   `yaml:"present_end" json:"present_end,omitempty"`
	LateEnd       string   `yaml:"late_end" json:"late_end,omitempty"`
	AllowedDays   []string `yaml:"allowed_days" json:"allowed_days,omitempty"`
	Timezone      string   `yaml:"timezone" json:"timezone,omitempty"` // IANA name or "Local"
	DropThreshold int      `yaml:"drop_threshold" json:"drop_threshold,omitempty"`
	DropOn        string   `yaml:"drop_on" json:"drop_on,omitempty"`
}

type RetryConfig struct {
	Attempts int    `yaml:"attempts" json:"attempts,omitempty"`
	Backoff  string `yaml:"backoff" json:"backoff,omitempty"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr,omitempty"`
}

// Default returns the built-in configuration.
func Default() File {
	return File{
		Database: DatabaseConfig{
			Path:        "rollcall.db",
			BusyTimeout: "5s",
		},
		Policy: PolicyConfig{
			PresentStart:  "12:20",
			PresentEnd:    "12:35",
			LateEnd:       "13:50",
			AllowedDays:   []string{"monday", "thursday", "saturday", "sunday"},
			Timezone:      "Local",
			DropThreshold: policy.DefaultDropThreshold,
			DropOn:        string(policy.DropOnConsecutive),
		},
		Retry: RetryConfig{
			Attempts: engine.DefaultRetry.MaxAttempts,
			Backoff:  engine.DefaultRetry.Backoff.String(),
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load reads path, validates it against the schema, fills omitted values
// with defaults and applies ROLLCALL_* environment overrides. An empty path
// yields the defaults plus overrides.
func Load(path string) (File, error) {
	var f File
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return File{}, fmt.Errorf("read config: %w", err)
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			f, err = decodeYAML(path, data)
		case ".cue":
			f, err = decodeCUE(path, data)
		default:
			return File{}, fmt.Errorf("config %s: unsupported extension %q (want .yaml, .yml or .cue)", path, ext)
		}
		if err != nil {
			return File{}, err
		}
	}
	f.fillDefaults(Default())
	f.applyEnv()
	return f, nil
}

// schema compiles the embedded #Config definition in ctx.
func schema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile config schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#Config")), nil
}

// check unifies v with the schema and requires a concrete result.
func check(ctx *cue.Context, path string, v cue.Value) (cue.Value, error) {
	def, err := schema(ctx)
	if err != nil {
		return cue.Value{}, err
	}
	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, fmt.Errorf("config %s: %w", path, err)
	}
	return unified, nil
}

func decodeYAML(path string, data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("config %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return File{}, fmt.Errorf("config %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	ctx := cuecontext.New()
	if _, err := check(ctx, path, ctx.Encode(raw)); err != nil {
		return File{}, err
	}
	return f, nil
}

func decodeCUE(path string, data []byte) (File, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return File{}, fmt.Errorf("config %s: %w", path, err)
	}
	unified, err := check(ctx, path, v)
	if err != nil {
		return File{}, err
	}
	var f File
	if err := unified.Decode(&f); err != nil {
		return File{}, fmt.Errorf("config %s: decode: %w", path, err)
	}
	return f, nil
}

func (f *File) fillDefaults(d File) {
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&f.Database.Path, d.Database.Path)
	fill(&f.Database.BusyTimeout, d.Database.BusyTimeout)
	fill(&f.Policy.PresentStart, d.Policy.PresentStart)
	fill(&f.Policy.PresentEnd, d.Policy.PresentEnd)
	fill(&f.Policy.LateEnd, d.Policy.LateEnd)
	fill(&f.Policy.Timezone, d.Policy.Timezone)
	fill(&f.Policy.DropOn, d.Policy.DropOn)
	fill(&f.Retry.Backoff, d.Retry.Backoff)
	fill(&f.HTTP.Addr, d.HTTP.Addr)
	if len(f.Policy.AllowedDays) == 0 {
		f.Policy.AllowedDays = d.Policy.AllowedDays
	}
	if f.Policy.DropThreshold == 0 {
		f.Policy.DropThreshold = d.Policy.DropThreshold
	}
	if f.Retry.Attempts == 0 {
		f.Retry.Attempts = d.Retry.Attempts
	}
}

// Environment variables that override file values.
const (
	EnvDB            = "ROLLCALL_DB"
	EnvHTTPAddr      = "ROLLCALL_HTTP_ADDR"
	EnvTimezone      = "ROLLCALL_TIMEZONE"
	EnvRetryAttempts = "ROLLCALL_RETRY_ATTEMPTS"
	EnvDropThreshold = "ROLLCALL_DROP_THRESHOLD"
)

func (f *File) applyEnv() {
	if v := os.Getenv(EnvDB); v != "" {
		f.Database.Path = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		f.HTTP.Addr = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		f.Policy.Timezone = v
	}
	f.Retry.Attempts = envInt(EnvRetryAttempts, f.Retry.Attempts)
	f.Policy.DropThreshold = envInt(EnvDropThreshold, f.Policy.DropThreshold)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// BuildPolicy builds and validates the attendance policy. Errors wrap
// policy.ErrInvalid.
func (f File) BuildPolicy() (policy.Policy, error) {
	pc := f.Policy
	var (
		p   policy.Policy
		err error
	)
	if p.PresentStart, err = policy.ParseTimeOfDay(pc.PresentStart); err != nil {
		return policy.Policy{}, fmt.Errorf("%w: present_start: %v", policy.ErrInvalid, err)
	}
	if p.PresentEnd, err = policy.ParseTimeOfDay(pc.PresentEnd); err != nil {
		return policy.Policy{}, fmt.Errorf("%w: present_end: %v", policy.ErrInvalid, err)
	}
	if p.LateEnd, err = policy.ParseTimeOfDay(pc.LateEnd); err != nil {
		return policy.Policy{}, fmt.Errorf("%w: late_end: %v", policy.ErrInvalid, err)
	}
	if p.AllowedDays, err = policy.ParseWeekdays(pc.AllowedDays); err != nil {
		return policy.Policy{}, fmt.Errorf("%w: allowed_days: %v", policy.ErrInvalid, err)
	}
	if p.Location, err = time.LoadLocation(pc.Timezone); err != nil {
		return policy.Policy{}, fmt.Errorf("%w: timezone: %v", policy.ErrInvalid, err)
	}
	p.DropThreshold = pc.DropThreshold
	p.DropOn = policy.DropCounter(pc.DropOn)
	return policy.New(p)
}

// EngineRetry returns the retry budget for engine.WithRetry.
func (f File) EngineRetry() (engine.Retry, error) {
	backoff, err := time.ParseDuration(f.Retry.Backoff)
	if err != nil {
		return engine.Retry{}, fmt.Errorf("retry.backoff: %w", err)
	}
	if f.Retry.Attempts < 1 {
		return engine.Retry{}, fmt.Errorf("retry.attempts must be at least 1, got %d", f.Retry.Attempts)
	}
	return engine.Retry{MaxAttempts: f.Retry.Attempts, Backoff: backoff}, nil
}

// BusyTimeout returns the SQLite busy timeout for store.WithBusyTimeout.
func (f File) BusyTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(f.Database.BusyTimeout)
	if err != nil {
		return 0, fmt.Errorf("database.busy_timeout: %w", err)
	}
	return d, nil
}

// Validate builds every derived setting and reports the first failure.
func (f File) Validate() error {
	if _, err := f.BuildPolicy(); err != nil {
		return err
	}
	if _, err := f.EngineRetry(); err != nil {
		return err
	}
	_, err := f.BusyTimeout()
	return err
}
