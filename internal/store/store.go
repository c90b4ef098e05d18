// Package store provides the persistence substrate: a small key-value
// document store the ledger writes through to wholesale on every mutation.
package store

import "context"

// Document keys. The ledger owns exactly two documents.
const (
	KeyExpenses = "expenses"
	KeySettings = "settings"
)

// DocumentStore is the outbound port for whole-document persistence.
// Load returns (nil, nil) for a missing key; absence is not an error.
type DocumentStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, doc []byte) error
	Delete(ctx context.Context, key string) error
}
