package query

import (
	"fmt"
	"sync"

	"pdfask/internal/domain"
)

// State is a state of the query lifecycle.
type State int

const (
	Idle State = iota
	Querying
	Answered
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Querying:
		return "querying"
	case Answered:
		return "answered"
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
	return fmt.Sprintf("query: cannot %s while %s", e.Op, e.From)
}

func (e *TransitionError) Unwrap() error { return domain.ErrInvalidTransition }

// Machine owns the lifecycle of one in-flight query. Only one query may be
// in flight; the machine enforces this itself.
type Machine struct {
	mu      sync.Mutex
	state   State
	request *domain.QueryRequest
	result  *domain.QueryResult
}

// NewMachine returns an Idle machine.
func NewMachine() *Machine { return &Machine{} }

// Submit validates rawText and moves to Querying. The previous result is
// discarded on acceptance.
func (m *Machine) Submit(rawText string) (domain.QueryRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Querying {
		return domain.QueryRequest{}, &TransitionError{Op: "submit", From: m.state}
	}
	req, err := domain.NewQueryRequest(rawText)
	if err != nil {
		return domain.QueryRequest{}, err
	}
	m.state = Querying
	m.request = &req
	m.result = nil
	return req, nil
}

// Resolve ends the in-flight query. The result replaces any previous one.
func (m *Machine) Resolve(result domain.QueryResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Querying {
		return &TransitionError{Op: "resolve", From: m.state}
	}
	if result.OriginQuery == "" {
		result.OriginQuery = m.request.Text
	}
	if result.Fragments == nil {
		result.Fragments = []domain.Fragment{}
	}
	if result.Status == domain.QuerySuccess {
		m.state = Answered
	} else {
		result.Status = domain.QueryError
		m.state = Failed
	}
	m.request = nil
	m.result = &result
	return nil
}

// Reset returns to Idle. It is rejected while a query is in flight.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Querying {
		return &TransitionError{Op: "reset", From: m.state}
	}
	m.state = Idle
	m.result = nil
	return nil
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// InFlight returns the request being answered, if any.
func (m *Machine) InFlight() (domain.QueryRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.request == nil {
		return domain.QueryRequest{}, false
	}
	return *m.request, true
}

// Result returns the last resolved result, if any.
func (m *Machine) Result() (domain.QueryResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result == nil {
		return domain.QueryResult{}, false
	}
	return *m.result, true
}
