package upload

import (
	"fmt"
	"sync"

	"pdfask/internal/domain"
)

// State is a state of the upload lifecycle.
type State int

const (
	Empty State = iota
	Selected
	Uploading
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Selected:
		return "selected"
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TransitionError reports an operation attempted in the wrong state.
type TransitionError struct {
	Op   string
	From State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("upload: cannot %s while %s", e.Op, e.From)
}

func (e *TransitionError) Unwrap() error { return domain.ErrInvalidTransition }

// Listener observes terminal transitions (Succeeded or Failed).
type Listener interface {
	UploadFinished(doc domain.DocumentSelection, outcome domain.UploadOutcome)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(doc domain.DocumentSelection, outcome domain.UploadOutcome)

func (f ListenerFunc) UploadFinished(doc domain.DocumentSelection, outcome domain.UploadOutcome) {
	f(doc, outcome)
}

// Machine tracks one pending file from selection to upload completion.
// All methods are safe for concurrent use; transitions never interleave.
type Machine struct {
	mu        sync.Mutex
	state     State
	selection *domain.DocumentSelection
	inFlight  *domain.DocumentSelection
	outcome   domain.UploadOutcome
	listeners []Listener
}

// NewMachine returns a machine in the Empty state.
func NewMachine(listeners ...Listener) *Machine {
	return &Machine{
		outcome:   domain.UploadOutcome{Status: domain.UploadIdle},
		listeners: listeners,
	}
}

// Subscribe registers l for terminal transitions.
func (m *Machine) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Select accepts candidate when its declared type is application/pdf.
// A rejected candidate leaves the machine untouched.
func (m *Machine) Select(candidate domain.DocumentSelection) error {
	if candidate.MimeType != domain.PDFMimeType {
		return &domain.ValidationError{Field: "file", Message: "please select a PDF file"}
	}
	if candidate.Blob == nil {
		return &domain.ValidationError{Field: "file", Message: "no content"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Uploading {
		return &TransitionError{Op: "select a file", From: m.state}
	}
	sel := candidate
	m.selection = &sel
	m.state = Selected
	m.outcome = domain.UploadOutcome{Status: domain.UploadIdle}
	return nil
}

// Begin moves Selected to Uploading and returns the document to send.
func (m *Machine) Begin() (domain.DocumentSelection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Selected || m.selection == nil {
		return domain.DocumentSelection{}, &TransitionError{Op: "begin upload", From: m.state}
	}
	m.state = Uploading
	m.inFlight = m.selection
	m.outcome = domain.UploadOutcome{Status: domain.UploadUploading}
	return *m.inFlight, nil
}

// Complete leaves Uploading for Succeeded or Failed depending on outcome,
// then notifies listeners outside the lock.
func (m *Machine) Complete(outcome domain.UploadOutcome) error {
	m.mu.Lock()
	if m.state != Uploading {
		from := m.state
		m.mu.Unlock()
		return &TransitionError{Op: "complete upload", From: from}
	}
	doc := *m.inFlight
	m.inFlight = nil
	if outcome.Status == domain.UploadSuccess {
		m.state = Succeeded
		m.selection = nil
	} else {
		outcome.Status = domain.UploadError
		m.state = Failed
	}
	m.outcome = outcome
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l.UploadFinished(doc, outcome)
	}
	return nil
}

// Reset clears the selection and outcome. It is rejected while uploading.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Uploading {
		return &TransitionError{Op: "reset", From: m.state}
	}
	m.state = Empty
	m.selection = nil
	m.outcome = domain.UploadOutcome{Status: domain.UploadIdle}
	return nil
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Outcome returns the outcome of the current or last attempt.
func (m *Machine) Outcome() domain.UploadOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Selection returns the pending document, if any.
func (m *Machine) Selection() (domain.DocumentSelection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selection == nil {
		return domain.DocumentSelection{}, false
	}
	return *m.selection, true
}
