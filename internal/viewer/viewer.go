// Package viewer implements the receipt carousel state machine: a Closed or
// Viewing state over one expense's attachments, with clamped keyboard
// navigation and a download side effect.
package viewer

import (
	"errors"
	"fmt"
	"io"

	"registro/internal/core"
	"registro/internal/receipt"
)

// ErrNoAttachments is returned when the viewer is opened without receipts.
var ErrNoAttachments = errors.New("no attachments to view")

// ErrClosed is returned for actions that require a Viewing state.
var ErrClosed = errors.New("viewer is closed")

type State int

const (
	StateClosed State = iota
	StateViewing
)

// Key is a navigation key delivered by the host's keyboard channel.
type Key string

const (
	KeyNext  Key = "ArrowRight"
	KeyPrev  Key = "ArrowLeft"
	KeyClose Key = "Escape"
)

// KeyRegistrar is the host collaborator that delivers keyboard events while
// the viewer is open. Register returns the unregister func the viewer must
// call on every transition to Closed, so no handler dangles.
type KeyRegistrar interface {
	Register(handler func(Key)) (unregister func())
}

type Viewer struct {
	keys KeyRegistrar

	state       State
	index       int
	attachments []core.Attachment
	unregister  func()
}

// New creates a closed viewer. keys may be nil when the host has no keyboard
// channel (e.g. in tests); navigation then happens through Next/Prev/Close.
func New(keys KeyRegistrar) *Viewer {
	return &Viewer{keys: keys, state: StateClosed}
}

// Open transitions to Viewing over the given attachments, clamping the start
// index into range, and registers the keyboard handler.
func (v *Viewer) Open(attachments []core.Attachment, start int) error {
	if len(attachments) == 0 {
		return ErrNoAttachments
	}
	if v.state == StateViewing {
		v.Close()
	}
	if start < 0 {
		start = 0
	}
	if start > len(attachments)-1 {
		start = len(attachments) - 1
	}
	v.attachments = append([]core.Attachment(nil), attachments...)
	v.index = start
	v.state = StateViewing
	if v.keys != nil {
		v.unregister = v.keys.Register(v.handleKey)
	}
	return nil
}

// Next advances to the following attachment. At the last item it is a no-op;
// there is no wraparound. A closed viewer ignores navigation.
func (v *Viewer) Next() {
	if v.state != StateViewing {
		return
	}
	if v.index < len(v.attachments)-1 {
		v.index++
	}
}

// Prev moves to the preceding attachment, clamped at the first item.
func (v *Viewer) Prev() {
	if v.state != StateViewing {
		return
	}
	if v.index > 0 {
		v.index--
	}
}

// Close transitions to Closed and unregisters the keyboard handler. It is
// the single exit used by the close control, backdrop dismissal and the
// cancellation key.
func (v *Viewer) Close() {
	if v.state != StateViewing {
		return
	}
	v.state = StateClosed
	v.attachments = nil
	v.index = 0
	if v.unregister != nil {
		v.unregister()
		v.unregister = nil
	}
}

// State returns the current state.
func (v *Viewer) State() State {
	return v.state
}

// Index returns the position of the attachment on display.
func (v *Viewer) Index() int {
	return v.index
}

// Current returns the attachment on display while Viewing.
func (v *Viewer) Current() (core.Attachment, bool) {
	if v.state != StateViewing {
		return core.Attachment{}, false
	}
	return v.attachments[v.index], true
}

// Download decodes the attachment on display and writes the original file
// bytes. It is available from any Viewing state and never changes state.
func (v *Viewer) Download(w io.Writer) error {
	att, ok := v.Current()
	if !ok {
		return ErrClosed
	}
	data, err := receipt.Decode(att)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", att.Name, err)
	}
	return nil
}

func (v *Viewer) handleKey(k Key) {
	switch k {
	case KeyNext:
		v.Next()
	case KeyPrev:
		v.Prev()
	case KeyClose:
		v.Close()
	}
}
