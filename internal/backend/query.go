package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"pdfask/internal/domain"
)

// Query posts {query, limit} to the query endpoint and normalizes the
// reply. Failures come back as error results with an empty fragment list.
func (c *Client) Query(ctx context.Context, q domain.QueryRequest) domain.QueryResult {
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultResultLimit
	}
	data, err := json.Marshal(queryRequest{Query: q.Text, Limit: limit})
	if err != nil {
		return domain.QueryFailed(q.Text, domain.FailureNetwork, NetworkErrorMessage)
	}
	req, log, err := c.newRequest(ctx, http.MethodPost, c.queryPath, bytes.NewReader(data))
	if err != nil {
		log.Error("build query request", zap.Error(err))
		return domain.QueryFailed(q.Text, domain.FailureNetwork, NetworkErrorMessage)
	}
	req.Header.Set("Content-Type", "application/json")

	status, payload, err := c.roundTrip(log, req)
	if err != nil {
		return domain.QueryFailed(q.Text, domain.FailureNetwork, NetworkErrorMessage)
	}
	if !isSuccess(status) {
		msg := serverMessage(payload)
		if msg == "" {
			msg = defaultQueryFailure
		}
		log.Warn("query rejected", zap.Int("status", status), zap.String("message", msg))
		return domain.QueryFailed(q.Text, domain.FailureServer, msg)
	}
	var wire queryResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		log.Warn("malformed query response", zap.Error(err))
		return domain.QueryFailed(q.Text, domain.FailureNetwork, NetworkErrorMessage)
	}
	res := wire.normalize(q.Text)
	log.Info("query answered", zap.Int("fragments", len(res.Fragments)), zap.Bool("answer", res.Answer.IsSet()))
	return res
}
