package http

import (
	"encoding/json"
	"net/http"

	"registro/internal/aggregate"
	"registro/internal/core"
	"registro/internal/receipt"
)

// expenseRequest is the write DTO. Amount arrives as a decimal string and is
// parsed to cents server-side, so clients never do money arithmetic.
type expenseRequest struct {
	Date        core.Date         `json:"date"`
	FactoryID   string            `json:"factoryId"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Amount      string            `json:"amount"`
	Reference   string            `json:"reference"`
	Vendor      string            `json:"vendor"`
	Attachments []core.Attachment `json:"attachments"`
}

func (req expenseRequest) toExpense() (core.Expense, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Date:        req.Date,
		FactoryID:   sanitizeInput(req.FactoryID),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Amount:      core.Money{Cents: cents},
		Reference:   sanitizeInput(req.Reference),
		Vendor:      sanitizeInput(req.Vendor),
		Attachments: req.Attachments,
	}, nil
}

func decodeExpenseRequest(w http.ResponseWriter, r *http.Request) (core.Expense, bool) {
	var req expenseRequest
	r.Body = http.MaxBytesReader(w, r.Body, 64<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed request body")
		return core.Expense{}, false
	}
	e, err := req.toExpense()
	if err != nil {
		writeDomainError(w, r, err)
		return core.Expense{}, false
	}
	return e, true
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	records := aggregate.FilterByPeriod(
		aggregate.FilterByFactory(s.ledger.Snapshot(), queryFactory(r)), period)

	writeJSON(w, http.StatusOK, struct {
		Expenses []core.Expense `json:"expenses"`
		Count    int            `json:"count"`
	}{Expenses: records, Count: len(records)})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	e, ok := decodeExpenseRequest(w, r)
	if !ok {
		return
	}
	stored, err := s.ledger.Add(r.Context(), e)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.flushViews()
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.ledger.FindByID(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	e, ok := decodeExpenseRequest(w, r)
	if !ok {
		return
	}
	stored, err := s.ledger.Update(r.Context(), r.PathValue("id"), e)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.flushViews()
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.flushViews()
	w.WriteHeader(http.StatusNoContent)
}

// handleDownloadReceipt streams the decoded original file bytes of one
// attachment.
func (s *Server) handleDownloadReceipt(w http.ResponseWriter, r *http.Request) {
	e, err := s.ledger.FindByID(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	attachmentID := r.PathValue("attachmentId")
	for _, a := range e.Attachments {
		if a.ID != attachmentID {
			continue
		}
		data, err := receipt.Decode(a)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", a.MimeType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+a.Name+`"`)
		_, _ = w.Write(data)
		return
	}
	writeError(w, r, http.StatusNotFound, "not_found", "attachment not found")
}

func (s *Server) handleListFactories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Factories []core.Factory `json:"factories"`
	}{Factories: s.ledger.Factories()})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Settings())
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if err := s.ledger.SaveSettings(r.Context(), settings); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.flushViews()
	writeJSON(w, http.StatusOK, settings)
}
