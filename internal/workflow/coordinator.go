package workflow

import (
	"sync"

	"go.uber.org/zap"

	"pdfask/internal/domain"
)

// Coordinator gates querying on a successful ingest. It observes the
// upload machine and advances the wizard from upload to ask; it never
// moves back on its own.
type Coordinator struct {
	mu       sync.RWMutex
	step     domain.WorkflowStep
	document string
	uploads  int
	log      *zap.Logger
}

// NewCoordinator returns a coordinator awaiting the first upload.
func NewCoordinator(log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{step: domain.StepAwaitingUpload, log: log.Named("workflow")}
}

// UploadFinished implements upload.Listener.
func (c *Coordinator) UploadFinished(doc domain.DocumentSelection, outcome domain.UploadOutcome) {
	if outcome.Status != domain.UploadSuccess {
		c.log.Info("upload failed, step unchanged",
			zap.String("document", doc.Name),
			zap.Stringer("failure", outcome.Failure),
			zap.String("step", string(c.Step())))
		return
	}
	c.mu.Lock()
	c.step = domain.StepReadyToQuery
	c.document = doc.Name
	c.uploads++
	c.mu.Unlock()
	c.log.Info("query unlocked", zap.String("document", doc.Name))
}

// Step returns the current wizard step.
func (c *Coordinator) Step() domain.WorkflowStep {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.step
}

// QueryUnlocked reports whether a document has been ingested.
func (c *Coordinator) QueryUnlocked() bool { return c.Step() == domain.StepReadyToQuery }

// DocumentName is the display name of the last successfully uploaded file.
func (c *Coordinator) DocumentName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.document
}

// Uploads counts successful uploads since the last reset.
func (c *Coordinator) Uploads() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uploads
}

// Reset locks querying again and forgets the document.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = domain.StepAwaitingUpload
	c.document = ""
	c.uploads = 0
}
