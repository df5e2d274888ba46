package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/rollcall/internal/model"
)

var testNow = time.Date(2026, 10, 15, 12, 30, 0, 0, time.UTC)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedPerson inserts an active person with zero counters.
func seedPerson(t *testing.T, s *Store, name string) model.Person {
	t.Helper()
	p := model.Person{
		Name:        name,
		Status:      model.LifecycleActive,
		CreatedAt:   testNow,
		LastUpdated: testNow,
	}
	err := s.Update(context.Background(), func(tx Tx) error {
		_, err := tx.InsertPerson(context.Background(), p)
		return err
	})
	if err != nil {
		t.Fatalf("seed person %q: %v", name, err)
	}
	return p
}

// createTestRecord creates a ledger row with minimal required fields.
func createTestRecord(id, name, date string, status model.Status, channel model.Channel) model.Record {
	return model.Record{
		ID:         id,
		PersonName: name,
		Date:       date,
		Time:       "12:30:00",
		Status:     status,
		Channel:    channel,
		CreatedAt:  testNow,
	}
}
