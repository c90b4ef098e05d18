package http

import (
	"net/http"
	"strings"

	"registro/internal/core"
	"registro/internal/receipt"
)

// maxBatchBytes bounds a whole upload batch: ten files at the per-file limit
// plus multipart overhead.
const maxBatchBytes = (receipt.MaxFileBytes * core.MaxAttachmentsPerExpense) + (1 << 20)

type rejectedFile struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type encodeResponse struct {
	Accepted []core.Attachment `json:"accepted"`
	Rejected []rejectedFile    `json:"rejected"`
}

// handleEncodeReceipts validates and encodes an upload batch against the
// session's attachment set. The "existing" form field carries the names
// already attached, so capacity and collision checks see the full picture.
// Per-file failures never abort the batch.
func (s *Server) handleEncodeReceipts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed multipart request")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	set := receipt.NewSet()
	if existing := strings.TrimSpace(r.FormValue("existing")); existing != "" {
		var current []core.Attachment
		for _, name := range strings.Split(existing, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				current = append(current, core.Attachment{ID: name, Name: name})
			}
		}
		set.Load(current)
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, r, http.StatusBadRequest, "bad_request", "no files submitted")
		return
	}

	resp := encodeResponse{Accepted: []core.Attachment{}, Rejected: []rejectedFile{}}
	files := make([]receipt.File, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			resp.Rejected = append(resp.Rejected, rejectedFile{Name: h.Filename, Error: err.Error()})
			continue
		}
		defer f.Close()
		files = append(files, receipt.File{
			Name:     h.Filename,
			MimeType: h.Header.Get("Content-Type"),
			Size:     h.Size,
			Content:  f,
		})
	}

	outcome := s.codec.ProcessBatch(r.Context(), set, files)
	resp.Accepted = append(resp.Accepted, outcome.Accepted...)
	for _, rej := range outcome.Rejected {
		resp.Rejected = append(resp.Rejected, rejectedFile{Name: rej.Name, Error: rej.Err.Error()})
	}

	writeJSON(w, http.StatusOK, resp)
}
