package workflow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pdfask/internal/domain"
	"pdfask/internal/query"
)

// Answer is a resolved query and how long the round trip took.
type Answer struct {
	Result  domain.QueryResult
	Elapsed time.Duration
}

// Asker runs the query lifecycle against a Querier.
type Asker struct {
	machine *query.Machine
	querier domain.Querier
	log     *zap.Logger

	mu      sync.Mutex
	elapsed time.Duration
}

// NewAsker returns an Asker with an idle query machine.
func NewAsker(querier domain.Querier, log *zap.Logger) *Asker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Asker{machine: query.NewMachine(), querier: querier, log: log.Named("query")}
}

// PendingQuery is a submitted query whose network call has not run yet.
type PendingQuery struct {
	Request domain.QueryRequest
	asker   *Asker
}

// Start submits rawText. Blank input and a query already in flight are
// rejected before any network call.
func (a *Asker) Start(rawText string) (*PendingQuery, error) {
	req, err := a.machine.Submit(rawText)
	if err != nil {
		return nil, err
	}
	return &PendingQuery{Request: req, asker: a}, nil
}

// Run performs the call and resolves the machine. If ctx is cancelled the
// machine is left untouched.
func (p *PendingQuery) Run(ctx context.Context) Answer {
	a := p.asker
	start := time.Now()
	res := a.querier.Query(ctx, p.Request)
	elapsed := time.Since(start)
	if ctx.Err() != nil {
		a.log.Warn("query abandoned", zap.String("query", p.Request.Text), zap.Error(ctx.Err()))
		return Answer{Result: res, Elapsed: elapsed}
	}
	if err := a.machine.Resolve(res); err != nil {
		a.log.Error("resolve query", zap.Error(err))
	}
	a.mu.Lock()
	a.elapsed = elapsed
	a.mu.Unlock()
	if stored, ok := a.machine.Result(); ok {
		res = stored
	}
	a.log.Info("query resolved",
		zap.String("status", string(res.Status)),
		zap.Int("fragments", len(res.Fragments)),
		zap.Duration("elapsed", elapsed))
	return Answer{Result: res, Elapsed: elapsed}
}

// Ask submits rawText and waits for the result.
func (a *Asker) Ask(ctx context.Context, rawText string) (Answer, error) {
	p, err := a.Start(rawText)
	if err != nil {
		return Answer{}, err
	}
	return p.Run(ctx), nil
}

// State returns the query machine's state.
func (a *Asker) State() query.State { return a.machine.State() }

func (a *Asker) lastElapsed() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.elapsed
}
