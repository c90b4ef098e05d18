// Package ledger holds the authoritative in-memory expense collection and its
// write-through contract with the document store. One Ledger instance owns the
// collection for the lifetime of the process; components receive it injected
// rather than reaching for ambient state.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"registro/internal/core"
	"registro/internal/store"
)

type Ledger struct {
	mu        sync.Mutex
	store     store.DocumentStore
	factories []core.Factory
	expenses  []core.Expense // newest-first, the canonical order
	settings  core.Settings

	// Injected for deterministic tests.
	now   func() time.Time
	newID func() string
}

func New(docs store.DocumentStore, factories []core.Factory) *Ledger {
	return &Ledger{
		store:     docs,
		factories: append([]core.Factory(nil), factories...),
		settings:  core.DefaultSettings(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Init loads both documents from the store. Missing documents leave the
// ledger empty and the settings at their defaults; that is the first-run
// state, not an error.
func (l *Ledger) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.store.Load(ctx, store.KeyExpenses)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	if doc != nil {
		var records []core.Expense
		if err := json.Unmarshal(doc, &records); err != nil {
			return fmt.Errorf("decode expenses document: %w", err)
		}
		l.expenses = records
	}

	doc, err = l.store.Load(ctx, store.KeySettings)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if doc != nil {
		var s core.Settings
		if err := json.Unmarshal(doc, &s); err != nil {
			return fmt.Errorf("decode settings document: %w", err)
		}
		l.settings = s
	}

	slog.InfoContext(ctx, "Ledger initialized",
		"records", len(l.expenses),
		"factories", len(l.factories))
	return nil
}

// Teardown performs a final sync of both documents before shutdown.
func (l *Ledger) Teardown(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.commitExpenses(ctx, "teardown"); err != nil {
		return err
	}
	return l.commitSettings(ctx, "teardown")
}

// Add validates the record, prepends it to the collection and commits.
// A validation failure performs no mutation. The stored record (with its
// generated id and createdAt) is returned.
func (l *Ledger) Add(ctx context.Context, e core.Expense) (core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.validate(e); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = l.newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now()
	}

	l.expenses = append([]core.Expense{e}, l.expenses...)

	if err := l.commitExpenses(ctx, "add"); err != nil {
		// In-memory mutation stands; the caller learns about the window.
		return e, err
	}
	slog.InfoContext(ctx, "Expense added",
		"id", e.ID,
		"factory", e.FactoryID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)
	return e, nil
}

// Remove deletes the record with the given id and commits. The record's
// attachments are discarded with it.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return core.ErrNotFound
	}
	l.expenses = append(l.expenses[:idx], l.expenses[idx+1:]...)

	if err := l.commitExpenses(ctx, "remove"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense removed", "id", id)
	return nil
}

// FindByID returns the record with the given id, or core.ErrNotFound.
func (l *Ledger) FindByID(id string) (core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return copyExpense(l.expenses[idx]), nil
}

// Update replaces the record in place, preserving its id, position and
// createdAt. Validation runs before anything mutates, so a bad edit leaves
// the original record intact and restorable.
func (l *Ledger) Update(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	if err := l.validate(e); err != nil {
		return core.Expense{}, err
	}
	e.ID = id
	e.CreatedAt = l.expenses[idx].CreatedAt
	l.expenses[idx] = e

	if err := l.commitExpenses(ctx, "update"); err != nil {
		return e, err
	}
	slog.InfoContext(ctx, "Expense updated", "id", id)
	return e, nil
}

// ReplaceAll swaps the whole collection atomically: every incoming record is
// validated first, and only a fully valid set is committed. Used by the
// import/restore path after the payload passed its schema check.
func (l *Ledger) ReplaceAll(ctx context.Context, records []core.Expense) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	incoming := make([]core.Expense, len(records))
	for i, e := range records {
		if err := l.validate(e); err != nil {
			return fmt.Errorf("%w: record %d: %v", core.ErrInvalidImportFormat, i, err)
		}
		if e.ID == "" {
			e.ID = l.newID()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = l.now()
		}
		incoming[i] = e
	}

	l.expenses = incoming
	if err := l.commitExpenses(ctx, "replaceAll"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Ledger replaced", "records", len(incoming))
	return nil
}

// Clear empties the expense collection and the settings document together,
// as a single logical reset.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.expenses = nil
	l.settings = core.DefaultSettings()

	if err := l.store.Delete(ctx, store.KeyExpenses); err != nil {
		return &core.PersistenceSyncError{Op: "clear", Err: err}
	}
	if err := l.store.Delete(ctx, store.KeySettings); err != nil {
		return &core.PersistenceSyncError{Op: "clear", Err: err}
	}
	slog.InfoContext(ctx, "Ledger cleared")
	return nil
}

// Snapshot returns a copy of the collection in canonical newest-first order.
// Aggregation and reporting work on snapshots, never on the live slice.
func (l *Ledger) Snapshot() []core.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Expense, len(l.expenses))
	for i, e := range l.expenses {
		out[i] = copyExpense(e)
	}
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.expenses)
}

// Factories returns the two production sites this ledger is scoped to.
func (l *Ledger) Factories() []core.Factory {
	return append([]core.Factory(nil), l.factories...)
}

// Settings returns the current settings document.
func (l *Ledger) Settings() core.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// SaveSettings replaces the settings document and commits it.
func (l *Ledger) SaveSettings(ctx context.Context, s core.Settings) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings = s
	return l.commitSettings(ctx, "saveSettings")
}

func (l *Ledger) validate(e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	for _, f := range l.factories {
		if f.ID == e.FactoryID {
			return nil
		}
	}
	return &core.ValidationError{Field: "factoryId", Reason: "unknown factory: " + e.FactoryID}
}

func (l *Ledger) indexOf(id string) int {
	for i, e := range l.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// commitExpenses is the explicit persistence boundary: whole-value JSON
// replacement of the expenses document. A failure after an in-memory
// mutation is reported, not rolled back.
func (l *Ledger) commitExpenses(ctx context.Context, op string) error {
	doc, err := json.Marshal(l.expenses)
	if err != nil {
		return &core.PersistenceSyncError{Op: op, Err: err}
	}
	if err := l.store.Save(ctx, store.KeyExpenses, doc); err != nil {
		slog.ErrorContext(ctx, "Expense sync failed after in-memory mutation",
			"op", op, "error", err)
		return &core.PersistenceSyncError{Op: op, Err: err}
	}
	return nil
}

func (l *Ledger) commitSettings(ctx context.Context, op string) error {
	doc, err := json.Marshal(l.settings)
	if err != nil {
		return &core.PersistenceSyncError{Op: op, Err: err}
	}
	if err := l.store.Save(ctx, store.KeySettings, doc); err != nil {
		slog.ErrorContext(ctx, "Settings sync failed", "op", op, "error", err)
		return &core.PersistenceSyncError{Op: op, Err: err}
	}
	return nil
}

func copyExpense(e core.Expense) core.Expense {
	cp := e
	cp.Attachments = append([]core.Attachment(nil), e.Attachments...)
	return cp
}
