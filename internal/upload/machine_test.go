package upload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfask/internal/domain"
)

func pdf(name string) domain.DocumentSelection {
	return domain.DocumentSelection{
		Blob:      domain.BytesBlob("%PDF-1.4\n"),
		Name:      name,
		SizeBytes: 9,
		MimeType:  domain.PDFMimeType,
	}
}

func TestSelectRejectsNonPDF(t *testing.T) {
	mimeTypes := []string{
		"", "text/plain", "image/png", "application/octet-stream",
		"application/msword", "application/pdf; charset=binary", "APPLICATION/PDF",
	}
	m := NewMachine()
	for _, mt := range mimeTypes {
		doc := pdf("x.pdf")
		doc.MimeType = mt
		err := m.Select(doc)
		require.Error(t, err, mt)
		assert.True(t, domain.IsValidation(err), mt)
		assert.Equal(t, Empty, m.State(), mt)
	}

	require.NoError(t, m.Select(pdf("a.pdf")))
	for _, mt := range mimeTypes {
		doc := pdf("b")
		doc.MimeType = mt
		require.Error(t, m.Select(doc))
		assert.Equal(t, Selected, m.State())
		sel, ok := m.Selection()
		require.True(t, ok)
		assert.Equal(t, "a.pdf", sel.Name)
	}
}

func TestSelectReplacesPriorSelection(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Select(pdf("a.pdf")))
	require.NoError(t, m.Select(pdf("b.pdf")))
	sel, ok := m.Selection()
	require.True(t, ok)
	assert.Equal(t, "b.pdf", sel.Name)
}

func TestBeginRequiresSelected(t *testing.T) {
	m := NewMachine()
	_, err := m.Begin()
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, Empty, m.State())

	require.NoError(t, m.Select(pdf("a.pdf")))
	doc, err := m.Begin()
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", doc.Name)
	assert.Equal(t, Uploading, m.State())
	assert.Equal(t, domain.UploadUploading, m.Outcome().Status)

	_, err = m.Begin()
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, Uploading, te.From)
	assert.Equal(t, Uploading, m.State())

	require.ErrorIs(t, m.Select(pdf("c.pdf")), domain.ErrInvalidTransition)
	require.ErrorIs(t, m.Reset(), domain.ErrInvalidTransition)
}

func TestCompleteSuccess(t *testing.T) {
	var got []domain.UploadOutcome
	m := NewMachine(ListenerFunc(func(doc domain.DocumentSelection, o domain.UploadOutcome) {
		assert.Equal(t, "a.pdf", doc.Name)
		got = append(got, o)
	}))
	require.NoError(t, m.Select(pdf("a.pdf")))
	_, err := m.Begin()
	require.NoError(t, err)

	require.NoError(t, m.Complete(domain.UploadOutcome{
		Status:         domain.UploadSuccess,
		ServerFilename: domain.Some("doc1.pdf"),
		Message:        domain.Some("ok"),
	}))
	assert.Equal(t, Succeeded, m.State())
	name, _ := m.Outcome().ServerFilename.Get()
	assert.Equal(t, "doc1.pdf", name)
	_, ok := m.Selection()
	assert.False(t, ok)
	require.Len(t, got, 1)

	_, err = m.Begin()
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.ErrorIs(t, m.Complete(domain.UploadOutcome{Status: domain.UploadSuccess}), domain.ErrInvalidTransition)
	assert.Len(t, got, 1)
}

func TestCompleteFailureRequiresReselect(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Select(pdf("a.pdf")))
	_, err := m.Begin()
	require.NoError(t, err)

	require.NoError(t, m.Complete(domain.UploadFailed(domain.FailureServer, "disk full")))
	assert.Equal(t, Failed, m.State())
	msg, _ := m.Outcome().Message.Get()
	assert.Equal(t, "disk full", msg)

	_, err = m.Begin()
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, m.Select(pdf("a.pdf")))
	assert.Equal(t, domain.UploadIdle, m.Outcome().Status)
	_, err = m.Begin()
	require.NoError(t, err)
}

func TestCompleteNormalizesNonSuccessStatus(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Select(pdf("a.pdf")))
	_, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, m.Complete(domain.UploadOutcome{Status: domain.UploadUploading}))
	assert.Equal(t, Failed, m.State())
	assert.Equal(t, domain.UploadError, m.Outcome().Status)
}

func TestReset(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Select(pdf("a.pdf")))
	require.NoError(t, m.Reset())
	assert.Equal(t, Empty, m.State())
	_, ok := m.Selection()
	assert.False(t, ok)
}

func TestSubscribeAfterConstruction(t *testing.T) {
	var order []string
	m := NewMachine(ListenerFunc(func(domain.DocumentSelection, domain.UploadOutcome) {
		order = append(order, "ctor")
	}))
	m.Subscribe(ListenerFunc(func(_ domain.DocumentSelection, o domain.UploadOutcome) {
		assert.Equal(t, domain.UploadError, o.Status)
		order = append(order, "late")
	}))

	require.NoError(t, m.Select(pdf("a.pdf")))
	_, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, m.Complete(domain.UploadFailed(domain.FailureServer, "disk full")))
	assert.Equal(t, []string{"ctor", "late"}, order)
}
