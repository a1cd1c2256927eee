package backend

import (
	"context"
	"errors"

	"pdfask/internal/domain"
)

// Health is the backend's self-reported status.
type Health struct {
	Status    string
	Database  string
	Documents int
	Error     domain.Optional[string]
}

// Healthy reports whether the backend claims to be healthy.
func (h Health) Healthy() bool { return h.Status == "healthy" }

// Stats summarizes what the backend has indexed.
type Stats struct {
	TotalDocuments           int
	TotalChunks              int
	AverageChunksPerDocument float64
}

// Health calls the health endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var wire struct {
		Status    string  `json:"status"`
		Database  string  `json:"database"`
		Documents int     `json:"documents_in_db"`
		Error     *string `json:"error"`
	}
	if err := c.getJSON(ctx, c.healthPath, &wire); err != nil {
		return Health{}, err
	}
	return Health{
		Status:    wire.Status,
		Database:  wire.Database,
		Documents: wire.Documents,
		Error:     domain.FromPtr(wire.Error),
	}, nil
}

// Stats calls the stats endpoint. The backend reports its own failures
// as {"error": ...} with a 200 status; those become errors here.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var wire struct {
		TotalDocuments int     `json:"total_documents"`
		TotalChunks    int     `json:"total_chunks"`
		Average        float64 `json:"average_chunks_per_document"`
		Error          *string `json:"error"`
	}
	if err := c.getJSON(ctx, c.statsPath, &wire); err != nil {
		return Stats{}, err
	}
	if wire.Error != nil {
		return Stats{}, errors.New("stats: " + *wire.Error)
	}
	return Stats{
		TotalDocuments:           wire.TotalDocuments,
		TotalChunks:              wire.TotalChunks,
		AverageChunksPerDocument: wire.Average,
	}, nil
}
