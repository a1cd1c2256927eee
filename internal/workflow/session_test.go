package workflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pdfask/internal/backend"
	"pdfask/internal/domain"
	"pdfask/internal/query"
	"pdfask/internal/upload"
)

type ingesterFunc func(ctx context.Context, doc domain.DocumentSelection) domain.UploadOutcome

func (f ingesterFunc) Upload(ctx context.Context, doc domain.DocumentSelection) domain.UploadOutcome {
	return f(ctx, doc)
}

type querierFunc func(ctx context.Context, req domain.QueryRequest) domain.QueryResult

func (f querierFunc) Query(ctx context.Context, req domain.QueryRequest) domain.QueryResult {
	return f(ctx, req)
}

func succeed(name string) ingesterFunc {
	return func(context.Context, domain.DocumentSelection) domain.UploadOutcome {
		return domain.UploadOutcome{Status: domain.UploadSuccess, ServerFilename: domain.Some(name), Message: domain.Some("ok")}
	}
}

func fail(msg string) ingesterFunc {
	return func(context.Context, domain.DocumentSelection) domain.UploadOutcome {
		return domain.UploadFailed(domain.FailureServer, msg)
	}
}

func echo(calls *atomic.Int32) querierFunc {
	return func(_ context.Context, req domain.QueryRequest) domain.QueryResult {
		calls.Add(1)
		return domain.QueryResult{
			OriginQuery: req.Text,
			Status:      domain.QuerySuccess,
			Fragments:   []domain.Fragment{{Text: req.Text}},
		}
	}
}

func pdf(name string) domain.DocumentSelection {
	return domain.DocumentSelection{Blob: domain.BytesBlob("%PDF-1.4"), Name: name, SizeBytes: 8, MimeType: domain.PDFMimeType}
}

func uploaded(t *testing.T, s *Session, name string) {
	t.Helper()
	require.NoError(t, s.Select(pdf(name)))
	out, err := s.Upload(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.UploadSuccess, out.Status)
}

func TestIngestEndpointSuccessUnlocksQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok","filename":"doc1.pdf"}`))
	}))
	defer server.Close()

	client := backend.NewClient(backend.Config{BaseURL: server.URL}, zaptest.NewLogger(t))
	s := NewSession(client, client, zaptest.NewLogger(t))
	require.NoError(t, s.Select(pdf("local.pdf")))

	out, err := s.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.UploadSuccess, out.Status)
	assert.Equal(t, "doc1.pdf", out.ServerFilename.OrElse(""))

	snap := s.Snapshot()
	assert.Equal(t, domain.StepReadyToQuery, snap.Step)
	assert.Equal(t, upload.Succeeded, snap.UploadState)
	assert.Equal(t, "local.pdf", snap.DocumentName)
	assert.Equal(t, 1, snap.Uploads)
}

func TestIngestEndpointFailureKeepsStep(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"disk full"}`))
	}))
	defer server.Close()

	client := backend.NewClient(backend.Config{BaseURL: server.URL}, zaptest.NewLogger(t))
	s := NewSession(client, client, zaptest.NewLogger(t))
	require.NoError(t, s.Select(pdf("local.pdf")))

	out, err := s.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.UploadError, out.Status)
	assert.Equal(t, "disk full", out.Message.OrElse(""))

	snap := s.Snapshot()
	assert.Equal(t, domain.StepAwaitingUpload, snap.Step)
	assert.Equal(t, upload.Failed, snap.UploadState)
	assert.Empty(t, snap.DocumentName)
}

func TestQueryLockedUntilUpload(t *testing.T) {
	var calls atomic.Int32
	s := NewSession(succeed("a.pdf"), echo(&calls), zaptest.NewLogger(t))

	_, err := s.Ask(context.Background(), "hello")
	require.ErrorIs(t, err, ErrQueryLocked)
	assert.Zero(t, calls.Load())

	uploaded(t, s, "a.pdf")
	ans, err := s.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.QuerySuccess, ans.Result.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQueryStaysUnlockedAfterLaterFailure(t *testing.T) {
	var calls atomic.Int32
	outcomes := []ingesterFunc{succeed("a.pdf"), fail("boom")}
	i := 0
	s := NewSession(ingesterFunc(func(ctx context.Context, doc domain.DocumentSelection) domain.UploadOutcome {
		f := outcomes[i]
		i++
		return f(ctx, doc)
	}), echo(&calls), zaptest.NewLogger(t))

	uploaded(t, s, "a.pdf")
	require.NoError(t, s.Select(pdf("b.pdf")))
	out, err := s.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.UploadError, out.Status)

	snap := s.Snapshot()
	assert.Equal(t, domain.StepReadyToQuery, snap.Step)
	assert.Equal(t, "a.pdf", snap.DocumentName)

	_, err = s.Ask(context.Background(), "still works?")
	require.NoError(t, err)
}

func TestBlankQueryMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	s := NewSession(succeed("a.pdf"), echo(&calls), zaptest.NewLogger(t))
	uploaded(t, s, "a.pdf")

	for _, raw := range []string{"", "   "} {
		_, err := s.Ask(context.Background(), raw)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.Equal(t, query.Idle, s.Snapshot().QueryState)
	}
	assert.Zero(t, calls.Load())
}

func TestSecondSubmitRejectedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := NewSession(succeed("a.pdf"), querierFunc(func(_ context.Context, req domain.QueryRequest) domain.QueryResult {
		close(started)
		<-release
		return domain.QueryResult{Status: domain.QuerySuccess, Fragments: []domain.Fragment{{Text: "first"}}}
	}), zaptest.NewLogger(t))
	uploaded(t, s, "a.pdf")

	p, err := s.StartQuery("first question")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var ans Answer
	wg.Add(1)
	go func() {
		defer wg.Done()
		ans = p.Run(context.Background())
	}()
	<-started

	_, err = s.StartQuery("second question")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, query.Querying, s.Snapshot().QueryState)
	require.ErrorIs(t, s.Reset(), domain.ErrInvalidTransition)

	close(release)
	wg.Wait()
	assert.Equal(t, "first question", ans.Result.OriginQuery)
	snap := s.Snapshot()
	assert.Equal(t, query.Answered, snap.QueryState)
	res, ok := snap.Result.Get()
	require.True(t, ok)
	assert.Equal(t, "first", res.Fragments[0].Text)
}

func TestSequentialQueriesReplaceResult(t *testing.T) {
	n := 0
	s := NewSession(succeed("a.pdf"), querierFunc(func(_ context.Context, req domain.QueryRequest) domain.QueryResult {
		n++
		if n == 1 {
			return domain.QueryResult{Status: domain.QuerySuccess, Fragments: []domain.Fragment{{Text: "A"}, {Text: "B"}}, Sources: domain.Some([]string{"x"})}
		}
		return domain.QueryResult{Status: domain.QuerySuccess, Fragments: []domain.Fragment{{Text: "C"}}}
	}), zaptest.NewLogger(t))
	uploaded(t, s, "a.pdf")

	first, err := s.Ask(context.Background(), "same")
	require.NoError(t, err)
	second, err := s.Ask(context.Background(), "same")
	require.NoError(t, err)

	assert.Len(t, first.Result.Fragments, 2)
	res, ok := s.Snapshot().Result.Get()
	require.True(t, ok)
	assert.Equal(t, second.Result, res)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, "C", res.Fragments[0].Text)
	assert.False(t, res.Sources.IsSet())
}

func TestUnreachableQueryEndpoint(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := backend.NewClient(backend.Config{BaseURL: url, Timeout: time.Second}, zaptest.NewLogger(t))
	s := NewSession(succeed("a.pdf"), client, zaptest.NewLogger(t))
	uploaded(t, s, "a.pdf")

	ans, err := s.Ask(context.Background(), "anyone there?")
	require.NoError(t, err)
	assert.Equal(t, domain.QueryError, ans.Result.Status)
	assert.Equal(t, backend.NetworkErrorMessage, ans.Result.Message.OrElse(""))
	assert.Equal(t, query.Failed, s.Snapshot().QueryState)
}

func TestCancelledUploadNeverCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession(ingesterFunc(func(ctx context.Context, doc domain.DocumentSelection) domain.UploadOutcome {
		cancel()
		return domain.UploadFailed(domain.FailureNetwork, backend.NetworkErrorMessage)
	}), echo(new(atomic.Int32)), zaptest.NewLogger(t))
	require.NoError(t, s.Select(pdf("a.pdf")))

	_, err := s.Upload(ctx)
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, upload.Uploading, snap.UploadState)
	assert.Equal(t, domain.StepAwaitingUpload, snap.Step)
}

func TestReset(t *testing.T) {
	var calls atomic.Int32
	s := NewSession(succeed("a.pdf"), echo(&calls), zaptest.NewLogger(t))
	uploaded(t, s, "a.pdf")
	_, err := s.Ask(context.Background(), "q")
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	snap := s.Snapshot()
	assert.Equal(t, domain.StepAwaitingUpload, snap.Step)
	assert.Equal(t, upload.Empty, snap.UploadState)
	assert.Equal(t, query.Idle, snap.QueryState)
	assert.False(t, snap.Result.IsSet())
	assert.Empty(t, snap.DocumentName)
	assert.Zero(t, snap.Uploads)
}

func TestRefusedResetKeepsEveryMachine(t *testing.T) {
	started, release := make(chan struct{}), make(chan struct{})
	n := 0
	s := NewSession(ingesterFunc(func(context.Context, domain.DocumentSelection) domain.UploadOutcome {
		n++
		if n == 2 {
			close(started)
			<-release
		}
		return domain.UploadOutcome{Status: domain.UploadSuccess, Message: domain.Some("ok")}
	}), echo(new(atomic.Int32)), zaptest.NewLogger(t))
	uploaded(t, s, "a.pdf")
	_, err := s.Ask(context.Background(), "kept")
	require.NoError(t, err)

	require.NoError(t, s.Select(pdf("b.pdf")))
	p, err := s.StartUpload()
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(context.Background())
	}()
	<-started

	require.ErrorIs(t, s.Reset(), domain.ErrInvalidTransition)
	snap := s.Snapshot()
	assert.Equal(t, upload.Uploading, snap.UploadState)
	assert.Equal(t, query.Answered, snap.QueryState)
	res, ok := snap.Result.Get()
	require.True(t, ok)
	assert.Equal(t, "kept", res.OriginQuery)
	assert.Equal(t, domain.StepReadyToQuery, snap.Step)

	close(release)
	<-done
	assert.Equal(t, 2, s.Snapshot().Uploads)
}
