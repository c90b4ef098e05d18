// Package backup exports the ledger as a self-contained JSON document and
// restores it, validating incoming documents against a schema before any
// state is touched.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"registro/internal/core"
	"registro/internal/ledger"
)

// FormatVersion identifies the backup document layout.
const FormatVersion = "1.0.0"

// Payload is the complete backup document.
type Payload struct {
	Expenses   []core.Expense `json:"expenses"`
	Settings   core.Settings  `json:"settings"`
	Factories  []core.Factory `json:"factories"`
	ExportDate time.Time      `json:"exportDate"`
	Version    string         `json:"version"`
}

// payloadSchema gates imports before anything is unmarshalled into domain
// types. Only the expenses array is required: older exports may lack
// settings, and factories are advisory.
var payloadSchema = map[string]any{
	"type":     "object",
	"required": []any{"expenses"},
	"properties": map[string]any{
		"expenses": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "date", "factoryId", "category", "amount"},
			},
		},
		"settings":   map[string]any{"type": "object"},
		"factories":  map[string]any{"type": "array"},
		"exportDate": map[string]any{"type": "string"},
		"version":    map[string]any{"type": "string"},
	},
}

// Export serializes the ledger's current state as an indented JSON document.
func Export(l *ledger.Ledger, now func() time.Time) ([]byte, error) {
	if now == nil {
		now = time.Now
	}
	p := Payload{
		Expenses:   l.Snapshot(),
		Settings:   l.Settings(),
		Factories:  l.Factories(),
		ExportDate: now().UTC(),
		Version:    FormatVersion,
	}
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return out, nil
}

// FileName returns the suggested name for an export taken at the given time.
func FileName(now time.Time) string {
	return "expense-backup-" + now.Format("2006-01-02") + ".json"
}

// Import validates data against the backup schema and replaces the ledger's
// contents with the document's expenses and settings. Validation is complete
// before the first write: a rejected document leaves the ledger untouched.
func Import(ctx context.Context, l *ledger.Ledger, data []byte) error {
	p, err := Parse(data)
	if err != nil {
		return err
	}
	if err := l.ReplaceAll(ctx, p.Expenses); err != nil {
		return err
	}
	if p.Settings.CurrencySymbol != "" {
		if err := l.SaveSettings(ctx, p.Settings); err != nil {
			return err
		}
	}
	return nil
}

// Parse validates and unmarshals a backup document without applying it.
func Parse(data []byte) (Payload, error) {
	if err := validateSchema(data); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", core.ErrInvalidImportFormat, err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", core.ErrInvalidImportFormat, err)
	}
	return p, nil
}

func validateSchema(data []byte) error {
	raw, err := json.Marshal(payloadSchema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("backup.schema.json", bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("backup.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}
