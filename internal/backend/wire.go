package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"pdfask/internal/domain"
)

// ingestResponse covers the ingest service reply and the file-receiving stub.
type ingestResponse struct {
	Message         *string `json:"message"`
	Filename        *string `json:"filename"`
	FileName        *string `json:"fileName"`
	DocumentID      *string `json:"document_id"`
	ChunksProcessed *int    `json:"chunks_processed"`
}

func (r ingestResponse) outcome() domain.UploadOutcome {
	name := r.Filename
	if name == nil {
		name = r.FileName
	}
	msg := defaultUploadSuccess
	if r.Message != nil && strings.TrimSpace(*r.Message) != "" {
		msg = *r.Message
	}
	return domain.UploadOutcome{
		Status:          domain.UploadSuccess,
		ServerFilename:  domain.FromPtr(name),
		Message:         domain.Some(msg),
		DocumentID:      domain.FromPtr(r.DocumentID),
		ChunksProcessed: domain.FromPtr(r.ChunksProcessed),
	}
}

type queryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// queryResponse covers every reply shape observed from the query endpoint,
// including the echo stub's "response" field.
type queryResponse struct {
	Answer   *string            `json:"answer"`
	Response *string            `json:"response"`
	Results  []fragmentResponse `json:"results"`
	Sources  *[]string          `json:"sources"`
	Message  *string            `json:"message"`
}

type fragmentResponse struct {
	ChunkText       string   `json:"chunk_text"`
	Score           *float64 `json:"score"`
	SimilarityScore *float64 `json:"similarity_score"`
	Source          *string  `json:"source"`
	DocumentID      *string  `json:"document_id"`
	ChunkIndex      *int     `json:"chunk_index"`
}

// normalize maps a successful reply to a QueryResult. Defaulting rules:
// answer falls back to response; absent answer and sources stay absent;
// a missing results list becomes an empty fragment slice.
func (r queryResponse) normalize(origin string) domain.QueryResult {
	answer := r.Answer
	if answer == nil {
		answer = r.Response
	}
	fragments := make([]domain.Fragment, 0, len(r.Results))
	for _, f := range r.Results {
		fragments = append(fragments, f.fragment())
	}
	return domain.QueryResult{
		OriginQuery: origin,
		Status:      domain.QuerySuccess,
		Answer:      domain.FromPtr(answer),
		Fragments:   fragments,
		Sources:     domain.FromPtr(r.Sources),
		Message:     domain.FromPtr(r.Message),
	}
}

// fragment prefers score over similarity_score, and source over a label
// derived from document_id and chunk_index.
func (f fragmentResponse) fragment() domain.Fragment {
	score := f.Score
	if score == nil {
		score = f.SimilarityScore
	}
	label := domain.FromPtr(f.Source)
	if !label.IsSet() && f.DocumentID != nil {
		if f.ChunkIndex != nil {
			label = domain.Some(fmt.Sprintf("document %s chunk %d", *f.DocumentID, *f.ChunkIndex))
		} else {
			label = domain.Some("document " + *f.DocumentID)
		}
	}
	return domain.Fragment{
		Text:        f.ChunkText,
		Score:       domain.FromPtr(score),
		SourceLabel: label,
	}
}

type errorBody struct {
	Message *string         `json:"message"`
	Detail  json.RawMessage `json:"detail"`
	Error   json.RawMessage `json:"error"`
}

// serverMessage extracts a human-readable message from an error body,
// trying message, then detail, then error. It returns "" when none apply.
func serverMessage(payload []byte) string {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Message != nil && strings.TrimSpace(*body.Message) != "" {
		return *body.Message
	}
	if msg := detailMessage(body.Detail); msg != "" {
		return msg
	}
	var s string
	if len(body.Error) > 0 && json.Unmarshal(body.Error, &s) == nil {
		return s
	}
	return ""
}

// detailMessage reads a FastAPI-style detail: a string, or a list of
// validation items carrying msg.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg != "" {
			msgs = append(msgs, it.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}
