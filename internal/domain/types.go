package domain

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// PDFMimeType is the only declared type a selection may carry.
const PDFMimeType = "application/pdf"

// DefaultResultLimit is the number of fragments requested per query.
const DefaultResultLimit = 5

// Blob gives access to the binary content of a selected document.
type Blob interface {
	Open() (io.ReadCloser, error)
}

// FileBlob is a Blob backed by a path on disk.
type FileBlob string

func (f FileBlob) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

// BytesBlob is a Blob held in memory.
type BytesBlob []byte

func (b BytesBlob) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// DocumentSelection is a file the user picked for upload.
type DocumentSelection struct {
	Blob      Blob
	Name      string
	SizeBytes int64
	MimeType  string
}

// UploadStatus is the status of the current upload attempt.
type UploadStatus string

const (
	UploadIdle      UploadStatus = "idle"
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadError     UploadStatus = "error"
)

// UploadOutcome is the result of one ingest attempt.
type UploadOutcome struct {
	Status          UploadStatus
	ServerFilename  Optional[string]
	Message         Optional[string]
	DocumentID      Optional[string]
	ChunksProcessed Optional[int]
	Failure         FailureKind
}

// UploadFailed builds an error outcome.
func UploadFailed(kind FailureKind, message string) UploadOutcome {
	return UploadOutcome{Status: UploadError, Message: Some(message), Failure: kind}
}

// QueryRequest is a validated question ready to be sent.
type QueryRequest struct {
	Text  string
	Limit int
}

// NewQueryRequest trims raw and rejects it when nothing is left.
func NewQueryRequest(raw string) (QueryRequest, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return QueryRequest{}, &ValidationError{Field: "query", Message: "please enter a question"}
	}
	return QueryRequest{Text: text, Limit: DefaultResultLimit}, nil
}

// QueryStatus is the status of a resolved query.
type QueryStatus string

const (
	QuerySuccess QueryStatus = "success"
	QueryError   QueryStatus = "error"
)

// Fragment is a retrieved excerpt of source text.
type Fragment struct {
	Text        string
	Score       Optional[float64]
	SourceLabel Optional[string]
}

// QueryResult is the normalized reply to one query.
type QueryResult struct {
	OriginQuery string
	Status      QueryStatus
	Answer      Optional[string]
	Fragments   []Fragment
	Sources     Optional[[]string]
	Message     Optional[string]
	Failure     FailureKind
}

// QueryFailed builds an error result with no fragments.
func QueryFailed(origin string, kind FailureKind, message string) QueryResult {
	return QueryResult{
		OriginQuery: origin,
		Status:      QueryError,
		Fragments:   []Fragment{},
		Message:     Some(message),
		Failure:     kind,
	}
}

// WorkflowStep is the wizard step the user is on.
type WorkflowStep string

const (
	StepAwaitingUpload WorkflowStep = "awaiting-upload"
	StepReadyToQuery   WorkflowStep = "ready-to-query"
)
