package http

import (
	"fmt"
	"net/http"
	"strings"

	"registro/internal/core"
	"registro/internal/report"
)

func reportOptions(r *http.Request) (report.Options, error) {
	kind := report.Kind(strings.TrimSpace(r.URL.Query().Get("kind")))
	switch kind {
	case "":
		kind = report.KindStandard
	case report.KindStandard, report.KindBank, report.KindTax:
	default:
		return report.Options{}, &core.ValidationError{
			Field:  "kind",
			Reason: "kind must be one of standard, bank, tax",
		}
	}
	period, err := queryPeriod(r)
	if err != nil {
		return report.Options{}, err
	}
	return report.Options{
		Kind:          kind,
		FactoryFilter: queryFactory(r),
		Period:        period,
	}, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	opts, err := reportOptions(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	opts.Now = s.now()
	writeJSON(w, http.StatusOK, report.Generate(s.ledger.Snapshot(), opts))
}

// handleReportXLSX serves the report as a downloadable workbook.
func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	opts, err := reportOptions(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	opts.Now = s.now()

	rep := report.Generate(s.ledger.Snapshot(), opts)
	out, err := report.ExportXLSX(rep, s.ledger.Settings().CurrencySymbol)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	name := fmt.Sprintf("expense-report-%s-%s.xlsx", rep.Kind, opts.Now.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(out)
}
