package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"pdfask/internal/domain"
	"pdfask/internal/query"
	"pdfask/internal/upload"
)

// ErrQueryLocked is returned when a question is asked before any
// document has been ingested.
var ErrQueryLocked = errors.New("upload a document before asking questions")

// Session is one user's upload-then-ask workflow. Starting a call and
// resetting are serialized so a reset never lands between two machines.
type Session struct {
	mu       sync.Mutex
	uploads  *upload.Machine
	coord    *Coordinator
	asker    *Asker
	ingester domain.Ingester
	log      *zap.Logger
}

// NewSession wires the machines, the coordinator and the clients.
func NewSession(ingester domain.Ingester, querier domain.Querier, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		uploads:  upload.NewMachine(),
		coord:    NewCoordinator(log),
		asker:    NewAsker(querier, log),
		ingester: ingester,
		log:      log.Named("session"),
	}
	s.uploads.Subscribe(s.coord)
	return s
}

// SelectFile picks the file at path for upload.
func (s *Session) SelectFile(path string) error {
	doc, err := upload.Open(path)
	if err != nil {
		return err
	}
	return s.Select(doc)
}

// Select picks doc for upload.
func (s *Session) Select(doc domain.DocumentSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.uploads.Select(doc); err != nil {
		s.log.Info("selection rejected", zap.String("document", doc.Name), zap.String("mime", doc.MimeType), zap.Error(err))
		return err
	}
	s.log.Debug("document selected", zap.String("document", doc.Name), zap.Int64("size", doc.SizeBytes))
	return nil
}

// PendingUpload is an upload that has begun but whose call has not run.
type PendingUpload struct {
	Document domain.DocumentSelection
	session  *Session
}

// StartUpload moves the selection into Uploading.
func (s *Session) StartUpload() (*PendingUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.uploads.Begin()
	if err != nil {
		return nil, err
	}
	return &PendingUpload{Document: doc, session: s}, nil
}

// Run sends the document and completes the upload machine, which in turn
// notifies the coordinator. If ctx is cancelled the machine is left as is.
func (p *PendingUpload) Run(ctx context.Context) domain.UploadOutcome {
	s := p.session
	out := s.ingester.Upload(ctx, p.Document)
	if ctx.Err() != nil {
		s.log.Warn("upload abandoned", zap.String("document", p.Document.Name), zap.Error(ctx.Err()))
		return out
	}
	if err := s.uploads.Complete(out); err != nil {
		s.log.Error("complete upload", zap.Error(err))
		return out
	}
	return s.uploads.Outcome()
}

// Upload uploads the selected document and waits for the outcome.
func (s *Session) Upload(ctx context.Context) (domain.UploadOutcome, error) {
	p, err := s.StartUpload()
	if err != nil {
		return domain.UploadOutcome{}, err
	}
	return p.Run(ctx), nil
}

// StartQuery submits a question once a document has been ingested.
func (s *Session) StartQuery(rawText string) (*PendingQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.coord.QueryUnlocked() {
		return nil, ErrQueryLocked
	}
	return s.asker.Start(rawText)
}

// Ask submits a question and waits for the answer.
func (s *Session) Ask(ctx context.Context, rawText string) (Answer, error) {
	p, err := s.StartQuery(rawText)
	if err != nil {
		return Answer{}, err
	}
	return p.Run(ctx), nil
}

// Reset clears the selection, the last result and the unlocked step.
// It fails while a call is in flight.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.uploads.State(); st == upload.Uploading {
		return &upload.TransitionError{Op: "reset", From: st}
	}
	if st := s.asker.State(); st == query.Querying {
		return &query.TransitionError{Op: "reset", From: st}
	}
	// Neither machine can leave its resting state without the session lock.
	if err := s.asker.machine.Reset(); err != nil {
		return err
	}
	if err := s.uploads.Reset(); err != nil {
		return err
	}
	s.coord.Reset()
	return nil
}

// Snapshot is a read-only view of the session for presentation.
type Snapshot struct {
	Step         domain.WorkflowStep
	DocumentName string
	Uploads      int
	UploadState  upload.State
	Upload       domain.UploadOutcome
	Selection    domain.Optional[domain.DocumentSelection]
	QueryState   query.State
	InFlight     domain.Optional[domain.QueryRequest]
	Result       domain.Optional[domain.QueryResult]
	Elapsed      time.Duration
}

// Snapshot captures the current state of every component.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Step:         s.coord.Step(),
		DocumentName: s.coord.DocumentName(),
		Uploads:      s.coord.Uploads(),
		UploadState:  s.uploads.State(),
		Upload:       s.uploads.Outcome(),
		QueryState:   s.asker.State(),
		Elapsed:      s.asker.lastElapsed(),
	}
	if sel, ok := s.uploads.Selection(); ok {
		snap.Selection = domain.Some(sel)
	}
	if req, ok := s.asker.machine.InFlight(); ok {
		snap.InFlight = domain.Some(req)
	}
	if res, ok := s.asker.machine.Result(); ok {
		snap.Result = domain.Some(res)
	}
	return snap
}
