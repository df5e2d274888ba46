package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

// RegisterPerson adds an active person with zero counters.
func (e *Engine) RegisterPerson(ctx context.Context, name, imagePath string, now time.Time) (model.Person, error) {
	name, err := normalizeName(name)
	if err != nil {
		return model.Person{}, err
	}
	p := model.Person{
		Name:        name,
		ImagePath:   imagePath,
		Status:      model.LifecycleActive,
		CreatedAt:   now,
		LastUpdated: now,
	}
	err = e.update(ctx, "register person", func(tx store.Tx) error {
		inserted, err := tx.InsertPerson(ctx, p)
		if err != nil {
			return err
		}
		if !inserted {
			return &Error{Code: ErrCodePersonExists, Message: "person is already on the roster", Person: name}
		}
		return nil
	})
	if err != nil {
		return model.Person{}, err
	}
	e.logger.Info("person registered", "person", name)
	return p, nil
}

// Drop suspends an active person. Counters are left as they are.
func (e *Engine) Drop(ctx context.Context, name string, now time.Time) (model.Person, error) {
	return e.setLifecycle(ctx, name, now, "drop person", func(p *model.Person) error {
		if !p.Active() {
			return &Error{Code: ErrCodeAlreadyDropped, Message: "person is already dropped", Person: p.Name}
		}
		p.Status = model.LifecycleDropped
		return nil
	})
}

// Reactivate restores a dropped person and zeroes both counters.
func (e *Engine) Reactivate(ctx context.Context, name string, now time.Time) (model.Person, error) {
	return e.setLifecycle(ctx, name, now, "reactivate person", func(p *model.Person) error {
		if p.Active() {
			return &Error{Code: ErrCodeNotDropped, Message: "person is not dropped", Person: p.Name}
		}
		p.Status = model.LifecycleActive
		p.TotalAbsences = 0
		p.ConsecutiveAbsences = 0
		return nil
	})
}

func (e *Engine) setLifecycle(ctx context.Context, name string, now time.Time, op string, mutate func(*model.Person) error) (model.Person, error) {
	name, err := normalizeName(name)
	if err != nil {
		return model.Person{}, err
	}
	var p model.Person
	err = e.update(ctx, op, func(tx store.Tx) error {
		var err error
		p, err = loadPerson(ctx, tx, name)
		if err != nil {
			return err
		}
		if err := mutate(&p); err != nil {
			return err
		}
		p.LastUpdated = now
		return tx.UpdatePerson(ctx, p)
	})
	if err != nil {
		return model.Person{}, err
	}
	e.logger.Info("lifecycle changed", "op", op, "person", name, "status", p.Status)
	return p, nil
}

// ResetCounters zeroes the selected absence counters for name, or for the
// whole roster when name is empty. Lifecycle status is not touched. It
// returns the number of people updated.
func (e *Engine) ResetCounters(ctx context.Context, name string, which model.Counter, now time.Time) (int64, error) {
	if !which.Valid() {
		return 0, invalidArgument("unknown counter %q: want both, total or consecutive", which)
	}
	if name != "" {
		var err error
		if name, err = normalizeName(name); err != nil {
			return 0, err
		}
	}

	var n int64
	err := e.update(ctx, "reset counters", func(tx store.Tx) error {
		var err error
		n, err = tx.ResetCounters(ctx, name, which, now)
		if err != nil {
			return err
		}
		if name != "" && n == 0 {
			return unknownPerson(name)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.logger.Info("counters reset", "person", name, "counter", which, "rows", n)
	return n, nil
}

// Person returns the roster entry for name.
func (e *Engine) Person(ctx context.Context, name string) (model.Person, error) {
	name, err := normalizeName(name)
	if err != nil {
		return model.Person{}, err
	}
	var p model.Person
	err = e.view(ctx, "get person", func(tx store.Tx) error {
		var err error
		p, err = loadPerson(ctx, tx, name)
		return err
	})
	return p, err
}

// ListPeople lists the roster ordered by name. An empty filter lists everyone.
func (e *Engine) ListPeople(ctx context.Context, filter model.Lifecycle) ([]model.Person, error) {
	if filter != "" && !filter.Valid() {
		return nil, invalidArgument("unknown status filter %q: want active or dropped", filter)
	}
	var people []model.Person
	err := e.view(ctx, "list people", func(tx store.Tx) error {
		var err error
		people, err = tx.People(ctx, filter)
		return err
	})
	return people, err
}

// DayReport is the ledger for one date with per-status counts.
type DayReport struct {
	Date    string         `json:"date"`
	Present int            `json:"present"`
	Late    int            `json:"late"`
	Absent  int            `json:"absent"`
	Records []model.Record `json:"records"`
}

// DayReport returns date's ledger rows ordered by time.
func (e *Engine) DayReport(ctx context.Context, date string) (DayReport, error) {
	if err := e.parseDate(date); err != nil {
		return DayReport{}, err
	}
	report := DayReport{Date: date}
	err := e.view(ctx, "day report", func(tx store.Tx) error {
		var err error
		report.Records, err = tx.RecordsOn(ctx, date)
		return err
	})
	if err != nil {
		return DayReport{}, err
	}
	for _, r := range report.Records {
		switch r.Status {
		case model.StatusPresent:
			report.Present++
		case model.StatusLate:
			report.Late++
		case model.StatusAbsent:
			report.Absent++
		}
	}
	return report, nil
}

// PersonHistory returns name's ledger rows with from <= date <= to, oldest
// first. Empty bounds are open.
func (e *Engine) PersonHistory(ctx context.Context, name, from, to string) ([]model.Record, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if from == "" {
		from = "0000-01-01"
	} else if err := e.parseDate(from); err != nil {
		return nil, err
	}
	if to == "" {
		to = "9999-12-31"
	} else if err := e.parseDate(to); err != nil {
		return nil, err
	}

	var records []model.Record
	err = e.view(ctx, "person history", func(tx store.Tx) error {
		if _, err := loadPerson(ctx, tx, name); err != nil {
			return err
		}
		var err error
		records, err = tx.PersonRecords(ctx, name, from, to)
		return err
	})
	return records, err
}

// SweepHistory lists completed sweeps, most recent first. limit <= 0 lists all.
func (e *Engine) SweepHistory(ctx context.Context, limit int) ([]model.SweepRun, error) {
	var runs []model.SweepRun
	err := e.view(ctx, "sweep history", func(tx store.Tx) error {
		var err error
		runs, err = tx.SweepRuns(ctx, limit)
		return err
	})
	return runs, err
}

// imageExtensions are the reference-image types accepted by ReferenceImages.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".jfif": true,
}

// ReferenceImage is one onboarding candidate: a person name derived from an
// image file stem.
type ReferenceImage struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ReferenceImages lists the image files directly inside dir, ordered by name.
// Files whose stems normalize to the same name keep the first path.
func ReferenceImages(dir string) ([]ReferenceImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read reference images: %w", err)
	}

	seen := make(map[string]bool)
	var images []ReferenceImage
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !imageExtensions[ext] {
			continue
		}
		name := model.NormalizeName(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		images = append(images, ReferenceImage{Name: name, Path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	return images, nil
}

// ImportResult reports which reference images became roster entries.
type ImportResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

// Import registers every image's person that is not on the roster yet.
// onStep, if non-nil, is called after each image with whether it was added.
func (e *Engine) Import(ctx context.Context, images []ReferenceImage, now time.Time, onStep func(ReferenceImage, bool)) (ImportResult, error) {
	result := ImportResult{Added: []string{}, Skipped: []string{}}
	for _, img := range images {
		_, err := e.RegisterPerson(ctx, img.Name, img.Path, now)
		var ee *Error
		switch {
		case err == nil:
			result.Added = append(result.Added, img.Name)
		case errors.As(err, &ee) && ee.Code == ErrCodePersonExists:
			result.Skipped = append(result.Skipped, img.Name)
		default:
			return result, fmt.Errorf("import %s: %w", img.Path, err)
		}
		if onStep != nil {
			onStep(img, err == nil)
		}
	}
	return result, nil
}
