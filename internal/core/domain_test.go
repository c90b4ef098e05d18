package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func validExpense() Expense {
	return Expense{
		ID:          "e1",
		Date:        NewDate(2024, 3, 1),
		FactoryID:   "textiles",
		Category:    "labor",
		Description: "weekly wages",
		Amount:      Money{Cents: 10000},
	}
}

func TestExpenseValidate(t *testing.T) {
	if err := validExpense().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
		field  string
	}{
		{"zero date", func(e *Expense) { e.Date = Date{Time: time.Time{}} }, "date"},
		{"empty factory", func(e *Expense) { e.FactoryID = " " }, "factoryId"},
		{"empty category", func(e *Expense) { e.Category = "" }, "category"},
		{"empty description", func(e *Expense) { e.Description = "   " }, "description"},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, "amount"},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -5} }, "amount"},
		{"duplicate attachment names", func(e *Expense) {
			e.Attachments = []Attachment{{ID: "a", Name: "r.pdf"}, {ID: "b", Name: "r.pdf"}}
		}, "attachments"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validExpense()
			tc.mutate(&e)
			err := e.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}

func TestExpenseValidateAttachmentLimit(t *testing.T) {
	e := validExpense()
	for i := 0; i <= MaxAttachmentsPerExpense; i++ {
		e.Attachments = append(e.Attachments, Attachment{ID: string(rune('a' + i)), Name: string(rune('a'+i)) + ".png"})
	}
	if err := e.Validate(); err == nil {
		t.Fatal("expected error for 11 attachments")
	}
	e.Attachments = e.Attachments[:MaxAttachmentsPerExpense]
	if err := e.Validate(); err != nil {
		t.Fatalf("expected 10 attachments to be valid, got %v", err)
	}
}

func TestExpenseJSONRoundTrip(t *testing.T) {
	e := validExpense()
	e.Attachments = []Attachment{{ID: "a1", Name: "r.pdf", MimeType: "application/pdf", SizeBytes: 42, EncodedData: "data:application/pdf;base64,QQ==", UploadedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Expense
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Date.Equal(e.Date.Time) {
		t.Fatalf("date round trip: got %v, want %v", got.Date, e.Date)
	}
	if got.Amount.Cents != e.Amount.Cents {
		t.Fatalf("amount round trip: got %d, want %d", got.Amount.Cents, e.Amount.Cents)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Name != "r.pdf" {
		t.Fatalf("attachments round trip: %+v", got.Attachments)
	}
}

func TestAttachmentBytes(t *testing.T) {
	e := validExpense()
	if e.Documented() {
		t.Fatal("expected undocumented record")
	}
	e.Attachments = []Attachment{{Name: "a", SizeBytes: 100}, {Name: "b", SizeBytes: 250}}
	if !e.Documented() {
		t.Fatal("expected documented record")
	}
	if got := e.AttachmentBytes(); got != 350 {
		t.Fatalf("expected 350 bytes, got %d", got)
	}
}
