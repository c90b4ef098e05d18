// Package receipt implements the receipt attachment subsystem: file
// validation, encoding into self-contained attachment records, and the
// bounded attachment set held during one entry or edit session.
package receipt

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"registro/internal/core"
)

// MaxFileBytes is the per-file receipt size limit (5 MiB).
const MaxFileBytes = 5 << 20

// acceptedTypes is the declared media type whitelist for uploads.
var acceptedTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/gif":       {},
	"application/pdf": {},
}

// File describes one uploaded file before encoding. Content is read exactly
// once, inside Encode; everything else is declared metadata.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Codec validates uploads and encodes them into attachment records.
type Codec struct {
	now   func() time.Time
	newID func() string
}

func NewCodec() *Codec {
	return &Codec{now: time.Now, newID: uuid.NewString}
}

// Validate checks the declared metadata of a file against the accepted media
// types, the size limit, and name collisions within the target set. It
// reports a distinct reason per rejection and never panics.
func (c *Codec) Validate(f File, set *Set) error {
	mime := strings.ToLower(strings.TrimSpace(f.MimeType))
	if _, ok := acceptedTypes[mime]; !ok {
		return &core.ValidationError{
			Field:  f.Name,
			Reason: fmt.Sprintf("file type %q is not accepted (allowed: JPEG, PNG, GIF, PDF)", f.MimeType),
		}
	}
	if f.Size > MaxFileBytes {
		return &core.ValidationError{
			Field:  f.Name,
			Reason: fmt.Sprintf("file is too large (%d bytes, limit 5 MiB)", f.Size),
		}
	}
	if set != nil && set.Contains(f.Name) {
		return &core.ValidationError{
			Field:  f.Name,
			Reason: "a file with this name is already attached",
		}
	}
	return nil
}

// Encode reads the file bytes and produces a self-contained attachment: a
// data URI embedding the media type and base64 payload, a fresh unique id and
// the upload timestamp. The read is the subsystem's only suspension point; a
// failure yields a ReadError and leaves the caller's set unmodified.
func (c *Codec) Encode(ctx context.Context, f File) (core.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return core.Attachment{}, &core.ReadError{Name: f.Name, Err: err}
	}
	data, err := io.ReadAll(f.Content)
	if err != nil {
		return core.Attachment{}, &core.ReadError{Name: f.Name, Err: err}
	}
	return core.Attachment{
		ID:          c.newID(),
		Name:        f.Name,
		MimeType:    f.MimeType,
		SizeBytes:   int64(len(data)),
		EncodedData: DataURI(f.MimeType, data),
		UploadedAt:  c.now(),
	}, nil
}

// BatchOutcome reports, per submitted file, whether it was attached or why
// it was rejected. A batch never fails as a whole.
type BatchOutcome struct {
	Accepted []core.Attachment
	Rejected []FileError
}

// FileError pairs a file name with the error that rejected it.
type FileError struct {
	Name string
	Err  error
}

// ProcessBatch runs one validate+encode cycle per file, sequentially. Files
// submitted after the set reached capacity are rejected with
// core.ErrCapacityExceeded; a read failure rejects only its own file.
func (c *Codec) ProcessBatch(ctx context.Context, set *Set, files []File) BatchOutcome {
	var out BatchOutcome
	for _, f := range files {
		if set.Len() >= core.MaxAttachmentsPerExpense {
			out.Rejected = append(out.Rejected, FileError{Name: f.Name, Err: core.ErrCapacityExceeded})
			continue
		}
		if err := c.Validate(f, set); err != nil {
			out.Rejected = append(out.Rejected, FileError{Name: f.Name, Err: err})
			continue
		}
		att, err := c.Encode(ctx, f)
		if err != nil {
			out.Rejected = append(out.Rejected, FileError{Name: f.Name, Err: err})
			continue
		}
		if err := set.Add(att); err != nil {
			out.Rejected = append(out.Rejected, FileError{Name: f.Name, Err: err})
			continue
		}
		out.Accepted = append(out.Accepted, att)
	}
	return out
}

// DataURI builds the self-describing encoding stored on an attachment.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode recovers the original file bytes from an attachment's data URI.
func Decode(a core.Attachment) ([]byte, error) {
	_, payload, ok := strings.Cut(a.EncodedData, ";base64,")
	if !ok {
		return nil, fmt.Errorf("attachment %s: malformed data URI", a.ID)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("attachment %s: decode payload: %w", a.ID, err)
	}
	return data, nil
}
