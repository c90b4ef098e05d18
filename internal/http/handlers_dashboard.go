package http

import (
	"encoding/json"
	"net/http"

	"registro/internal/aggregate"
	"registro/internal/core"
)

type dashboardResponse struct {
	Factory          string     `json:"factory"`
	MonthlyTotal     core.Money `json:"monthlyTotalCents"`
	YearlyTotal      core.Money `json:"yearlyTotalCents"`
	MonthlyDisplay   string     `json:"monthlyTotal"`
	YearlyDisplay    string     `json:"yearlyTotal"`
	TransactionCount int        `json:"transactionCount"`
}

// handleDashboard serves the three summary figures for the selected factory,
// from the response cache when possible.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	factory := queryFactory(r)
	key := "dashboard|" + factory

	if body, ok := s.viewCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(body)
		return
	}

	snap := aggregate.DashboardSnapshot(s.ledger.Snapshot(), factory, s.now())
	symbol := s.ledger.Settings().CurrencySymbol
	resp := dashboardResponse{
		Factory:          factory,
		MonthlyTotal:     snap.MonthlyTotal,
		YearlyTotal:      snap.YearlyTotal,
		MonthlyDisplay:   snap.MonthlyTotal.Format(symbol),
		YearlyDisplay:    snap.YearlyTotal.Format(symbol),
		TransactionCount: snap.TransactionCount,
	}

	body, err := json.Marshal(resp)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.viewCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(body)
}
