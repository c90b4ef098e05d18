package http

import (
	"io"
	"net/http"

	"registro/internal/backup"
)

// maxBackupBytes bounds an uploaded backup document. Attachments are embedded
// base64, so real documents can get large.
const maxBackupBytes = 256 << 20

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	out, err := backup.Export(s.ledger, s.now)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+backup.FileName(s.now())+`"`)
	_, _ = w.Write(out)
}

func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "too_large", "backup document is too large")
		return
	}
	if err := backup.Import(r.Context(), s.ledger, data); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.flushViews()
	writeJSON(w, http.StatusOK, struct {
		Imported int `json:"imported"`
	}{Imported: s.ledger.Len()})
}

// handleReset clears all expense records and settings. The factories survive;
// they are fixed for the installation.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Clear(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.flushViews()
	w.WriteHeader(http.StatusNoContent)
}
