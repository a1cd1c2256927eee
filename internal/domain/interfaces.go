package domain

import "context"

// Ingester submits a selected document to the ingest endpoint.
// Implementations report every failure through the returned outcome.
type Ingester interface {
	Upload(ctx context.Context, doc DocumentSelection) UploadOutcome
}

// Querier sends a question to the query endpoint and normalizes the reply.
// Implementations report every failure through the returned result.
type Querier interface {
	Query(ctx context.Context, req QueryRequest) QueryResult
}
