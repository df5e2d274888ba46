package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/engine"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"person": "Ada"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]interface{}{"person": "Ada"}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("CARD_ALREADY_LINKED", "card is linked to another person", map[string]string{"card": "AA"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CARD_ALREADY_LINKED", resp.Error.Code)
	assert.Equal(t, map[string]interface{}{"card": "AA"}, resp.Error.Details)
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("Ada: present on 2026-10-15 via face"))
	require.NoError(t, formatter.Error("UNKNOWN_PERSON", "person is not on the roster", map[string]string{"person": "Linus"}))

	out := buf.String()
	assert.Contains(t, out, "Ada: present on 2026-10-15 via face\n")
	assert.Contains(t, out, "Error [UNKNOWN_PERSON]: person is not on the roster\n")
	assert.NotContains(t, out, "Details:")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("UNKNOWN_PERSON", "person is not on the roster", map[string]string{"person": "Linus"}))
	assert.Contains(t, buf.String(), "Details: map[person:Linus]")
}

func TestOutputFormatter_Render(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, formatter.Render([]int{1, 2}, func(w io.Writer) {
		fmt.Fprintln(w, "two items")
	}))
	assert.Equal(t, "two items\n", buf.String())

	buf.Reset()
	formatter.Format = "json"
	require.NoError(t, formatter.Render([]int{1, 2}, func(w io.Writer) {
		t.Fatal("text renderer called in json mode")
	}))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, []interface{}{float64(1), float64(2)}, resp.Data)
}

func TestOutputFormatter_Fail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{
			name:     "refusal",
			err:      &engine.Error{Code: engine.ErrCodeUnknownPerson, Message: "person is not on the roster", Person: "Linus"},
			wantCode: "UNKNOWN_PERSON",
			wantExit: ExitFailure,
		},
		{
			name:     "wrapped refusal",
			err:      fmt.Errorf("sweep: %w", &engine.Error{Code: engine.ErrCodeInactivePerson, Message: "x"}),
			wantCode: "INACTIVE_PERSON",
			wantExit: ExitFailure,
		},
		{
			name:     "storage",
			err:      &engine.Error{Code: engine.ErrCodeStorageUnavailable, Message: "retries exhausted"},
			wantCode: "STORAGE_UNAVAILABLE",
			wantExit: ExitCommandError,
		},
		{
			name:     "not an engine error",
			err:      errors.New("disk on fire"),
			wantCode: CodeCommandError,
			wantExit: ExitCommandError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Fail("record failed", tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.True(t, IsReported(err))
			assert.ErrorIs(t, err, tt.err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestErrorDetails(t *testing.T) {
	assert.Nil(t, errorDetails(errors.New("plain")))
	assert.Nil(t, errorDetails(&engine.Error{Code: engine.ErrCodeStorageUnavailable}))
	assert.Equal(t, map[string]string{"card": "AA", "person": "Grace", "linked_to": "Ada"},
		errorDetails(&engine.Error{Code: engine.ErrCodeCardAlreadyLinked, Card: "AA", Person: "Grace", Other: "Ada"}))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad path"))))
	assert.False(t, IsReported(NewExitError(ExitFailure, "x")))
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "bad path", NewExitError(ExitCommandError, "bad path").Error())
	assert.Equal(t, "open: denied", WrapExitError(ExitCommandError, "open", errors.New("denied")).Error())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Importing %s", "ada.jpg")

			assert.Empty(t, buf.String())
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "Importing ada.jpg")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "disk on fire", errorMessage(errors.New("disk on fire")))
	assert.Equal(t, "person is not on the roster (person=Linus)",
		errorMessage(fmt.Errorf("record: %w", &engine.Error{Code: engine.ErrCodeUnknownPerson, Message: "person is not on the roster", Person: "Linus"})))
	assert.Equal(t, "retries exhausted: database is locked",
		errorMessage(&engine.Error{Code: engine.ErrCodeStorageUnavailable, Message: "retries exhausted", Err: errors.New("database is locked")}))
}
