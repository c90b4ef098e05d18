package core

import (
	"strconv"
	"strings"
	"time"
)

const (
	// MaxAttachmentsPerExpense bounds how many receipts a single record may carry.
	MaxAttachmentsPerExpense = 10

	// FactoryBoth selects records from both factories in filters and reports.
	FactoryBoth = "both"
)

type (
	// Factory is one of the two fixed production sites. Both instances are
	// created at startup and never change afterwards.
	Factory struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Location string `json:"location"`
	}

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Attachment is an encoded supporting document linked to an expense.
	// EncodedData holds a self-describing data URI so the record can be
	// rendered or downloaded without touching the original file again.
	Attachment struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		MimeType    string    `json:"mimeType"`
		SizeBytes   int64     `json:"sizeBytes"`
		EncodedData string    `json:"encodedData"`
		UploadedAt  time.Time `json:"uploadedAt"`
	}

	Expense struct {
		ID          string       `json:"id"`
		Date        Date         `json:"date"`
		FactoryID   string       `json:"factoryId"`
		Category    string       `json:"category"`
		Description string       `json:"description"`
		Amount      Money        `json:"amount"`
		Reference   string       `json:"reference,omitempty"`
		Vendor      string       `json:"vendor,omitempty"`
		Attachments []Attachment `json:"attachments"`
		CreatedAt   time.Time    `json:"createdAt"`
	}

	// Settings is the per-user preferences document persisted alongside the
	// expense collection and cleared together with it.
	Settings struct {
		CurrencySymbol string `json:"currencySymbol"`
		DefaultFactory string `json:"defaultFactory"`
	}
)

// DefaultFactories returns the two production sites the ledger is scoped to.
func DefaultFactories() [2]Factory {
	return [2]Factory{
		{ID: "textiles", Name: "Textile Works", Location: "North Site"},
		{ID: "investments", Name: "Investment Holdings", Location: "South Site"},
	}
}

// DefaultSettings returns the settings document used before the user saved one.
func DefaultSettings() Settings {
	return Settings{CurrencySymbol: "€", DefaultFactory: FactoryBoth}
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "date", Reason: "date is required"}
	}
	return nil
}

// MarshalJSON encodes the date as a plain "2006-01-02" string, the format
// used by the persisted documents and the backup payload.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return &ValidationError{Field: "amount", Reason: "amount must be greater than zero"}
	}
	return nil
}

// MarshalJSON encodes money as its minor-unit integer value.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Cents, 10)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseInt(strings.Trim(string(b), `"`), 10, 64)
	if err != nil {
		return &ValidationError{Field: "amount", Reason: "amount must be an integer number of cents"}
	}
	m.Cents = v
	return nil
}

// Validate checks the intrinsic field-level invariants of an expense record.
// Factory membership is checked by the ledger, which knows the two sites.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.FactoryID) == "" {
		return &ValidationError{Field: "factoryId", Reason: "factory is required"}
	}
	if strings.TrimSpace(e.Category) == "" {
		return &ValidationError{Field: "category", Reason: "category is required"}
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return &ValidationError{Field: "description", Reason: "description is required"}
	}
	if len(e.Description) > 200 {
		return &ValidationError{Field: "description", Reason: "description too long (max 200 characters)"}
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.Attachments) > MaxAttachmentsPerExpense {
		return &ValidationError{Field: "attachments", Reason: "too many attachments (max 10)"}
	}
	seen := make(map[string]struct{}, len(e.Attachments))
	for _, a := range e.Attachments {
		if _, dup := seen[a.Name]; dup {
			return &ValidationError{Field: "attachments", Reason: "duplicate attachment name: " + a.Name}
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// Documented reports whether the record carries at least one receipt.
func (e Expense) Documented() bool {
	return len(e.Attachments) > 0
}

// AttachmentBytes returns the combined size of all attached receipts.
func (e Expense) AttachmentBytes() int64 {
	var n int64
	for _, a := range e.Attachments {
		n += a.SizeBytes
	}
	return n
}
