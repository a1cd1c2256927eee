package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"go.uber.org/zap"

	"pdfask/internal/domain"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload posts doc as the multipart field "file" to the ingest endpoint.
// It never returns a raw transport error: every failure becomes an error
// outcome, with NetworkErrorMessage for transport problems.
func (c *Client) Upload(ctx context.Context, doc domain.DocumentSelection) domain.UploadOutcome {
	body, contentType, err := multipartBody(doc)
	if err != nil {
		c.log.Error("read document", zap.String("document", doc.Name), zap.Error(err))
		return domain.UploadFailed(domain.FailureNetwork, "could not read document")
	}
	req, log, err := c.newRequest(ctx, http.MethodPost, c.ingestPath, body)
	if err != nil {
		log.Error("build ingest request", zap.Error(err))
		return domain.UploadFailed(domain.FailureNetwork, NetworkErrorMessage)
	}
	req.Header.Set("Content-Type", contentType)
	log = log.With(zap.String("document", doc.Name), zap.Int64("size", doc.SizeBytes))

	status, payload, err := c.roundTrip(log, req)
	if err != nil {
		return domain.UploadFailed(domain.FailureNetwork, NetworkErrorMessage)
	}
	if !isSuccess(status) {
		msg := serverMessage(payload)
		if msg == "" {
			msg = defaultUploadFailure
		}
		log.Warn("ingest rejected", zap.Int("status", status), zap.String("message", msg))
		return domain.UploadFailed(domain.FailureServer, msg)
	}
	var wire ingestResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		log.Warn("malformed ingest response", zap.Int("status", status), zap.Error(err))
		return domain.UploadFailed(domain.FailureNetwork, NetworkErrorMessage)
	}
	out := wire.outcome()
	log.Info("document ingested", zap.String("server_filename", out.ServerFilename.OrElse("")))
	return out
}

// multipartBody encodes doc without touching the selection itself.
func multipartBody(doc domain.DocumentSelection) (*bytes.Buffer, string, error) {
	if doc.Blob == nil {
		return nil, "", errors.New("selection has no content")
	}
	rc, err := doc.Blob.Open()
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(doc.Name)))
	h.Set("Content-Type", doc.MimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, rc); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
