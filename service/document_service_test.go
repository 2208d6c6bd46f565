package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"clauseguard-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractText = `Either party may terminate this Agreement upon thirty days written notice to the other party.

The Customer shall indemnify and hold harmless the Supplier from all third party claims arising from use.

In no event shall either party be liable for indirect, incidental or consequential damages of any kind.`

type stubExtractor struct {
	mimeType   string
	extraction *models.Extraction
	err        error
	calls      int
}

func (s *stubExtractor) Supports(mimeType string) bool { return mimeType == s.mimeType }

func (s *stubExtractor) Extract(context.Context, []byte, string) (*models.Extraction, error) {
	s.calls++
	return s.extraction, s.err
}

type documentFixture struct {
	docs    *memDocuments
	files   *memFiles
	storage *memStorage
	svc     *DocumentService
}

func newDocumentFixture(opts ...DocumentServiceOption) *documentFixture {
	f := &documentFixture{
		docs:    newMemDocuments(),
		files:   newMemFiles(),
		storage: newMemStorage(),
	}
	base := []DocumentServiceOption{
		DocumentWithDocumentRepository(f.docs),
		DocumentWithFileRepository(f.files),
		DocumentWithStorage(f.storage),
		DocumentWithExtractor(PlainTextExtractor{}),
	}
	f.svc = NewDocumentService(append(base, opts...)...)
	return f
}

func TestDocumentService_UploadPlainText(t *testing.T) {
	f := newDocumentFixture()

	res, err := f.svc.Upload(context.Background(), UploadRequest{
		Filename: "msa.txt",
		MimeType: "text/plain; charset=utf-8",
		Data:     strings.NewReader(contractText),
	})
	require.NoError(t, err)

	doc := res.Document
	assert.Equal(t, models.DocumentStatusExtracted, doc.Status)
	assert.Equal(t, "text/plain", doc.MimeType)
	require.NotNil(t, doc.FileID)
	assert.Equal(t, res.File.ID, *doc.FileID)
	require.NotNil(t, doc.ExtractedText)
	assert.Equal(t, contractText, *doc.ExtractedText)
	assert.Len(t, doc.Clauses, 3)
	assert.Equal(t, fingerprint([]byte(contractText)), doc.ContentHash)
	assert.Len(t, doc.ContentHash, 64)
	assert.Equal(t, 1, f.storage.len())

	got, err := f.svc.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.Document.ID)
}

func TestDocumentService_UploadInfersMimeType(t *testing.T) {
	f := newDocumentFixture()

	res, err := f.svc.Upload(context.Background(), UploadRequest{
		Filename: "notes.md",
		Data:     strings.NewReader(contractText),
	})
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", res.Document.MimeType)
}

func TestDocumentService_UploadDocx(t *testing.T) {
	f := newDocumentFixture(DocumentWithExtractor(DocxExtractor{}))
	data := contractDocx(t)

	res, err := f.svc.Upload(context.Background(), UploadRequest{
		Filename: "msa.docx",
		Data:     bytes.NewReader(data),
	})
	require.NoError(t, err)

	doc := res.Document
	assert.Equal(t, DocxMimeType, doc.MimeType)
	assert.Equal(t, models.DocumentStatusExtracted, doc.Status)
	require.NotNil(t, doc.ExtractedText)
	assert.Contains(t, *doc.ExtractedText, "consequential damages")
	assert.Len(t, doc.Clauses, 3)
	assert.Equal(t, fingerprint(data), doc.ContentHash)
	assert.Equal(t, 1, f.storage.len())

	_, err = f.svc.Upload(context.Background(), UploadRequest{
		Filename: "broken.docx",
		MimeType: DocxMimeType,
		Data:     strings.NewReader("PK not really"),
	})
	assert.ErrorIs(t, err, ErrUnsupportedMimeType)
	assert.Equal(t, 1, f.storage.len())
}

func TestDocumentService_UploadUnsupported(t *testing.T) {
	f := newDocumentFixture()

	_, err := f.svc.Upload(context.Background(), UploadRequest{
		Filename: "scan.pdf",
		MimeType: "application/pdf",
		Data:     strings.NewReader("%PDF-1.7"),
	})
	assert.ErrorIs(t, err, ErrUnsupportedMimeType)
	assert.Zero(t, f.storage.len())
}

func TestDocumentService_UploadUsesFirstSupportingExtractor(t *testing.T) {
	pdf := &stubExtractor{
		mimeType: "application/pdf",
		extraction: &models.Extraction{
			Text:    "Governing law text",
			Clauses: []models.Clause{{Content: "Governing law text", Type: models.ClauseTypeGoverningLaw}},
		},
	}
	f := newDocumentFixture(DocumentWithExtractor(pdf))

	res, err := f.svc.Upload(context.Background(), UploadRequest{
		Filename: "msa.pdf",
		MimeType: "application/pdf",
		Data:     strings.NewReader("%PDF-1.7 ..."),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pdf.calls)
	require.Len(t, res.Document.Clauses, 1)
	assert.Equal(t, models.ClauseTypeGoverningLaw, res.Document.Clauses[0].Type)
}

func TestDocumentService_UploadTooLarge(t *testing.T) {
	f := newDocumentFixture(DocumentWithMaxUploadBytes(16))

	_, err := f.svc.Upload(context.Background(), UploadRequest{
		Filename: "msa.txt",
		MimeType: "text/plain",
		Data:     strings.NewReader(contractText),
	})
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Zero(t, f.storage.len())
}

func TestDocumentService_UploadNoText(t *testing.T) {
	f := newDocumentFixture()

	for _, body := range []string{"", "   \n\n  "} {
		_, err := f.svc.Upload(context.Background(), UploadRequest{
			Filename: "blank.txt",
			MimeType: "text/plain",
			Data:     strings.NewReader(body),
		})
		assert.ErrorIs(t, err, ErrNoExtractableText)
	}
	assert.Zero(t, f.storage.len())
}

func TestDocumentService_UploadExtractionFailure(t *testing.T) {
	broken := &stubExtractor{mimeType: "application/pdf", err: errors.New("model overloaded")}
	f := newDocumentFixture(DocumentWithExtractor(broken))

	_, err := f.svc.Upload(context.Background(), UploadRequest{
		Filename: "msa.pdf",
		MimeType: "application/pdf",
		Data:     strings.NewReader("%PDF"),
	})
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestDocumentService_UploadStorageFailure(t *testing.T) {
	f := newDocumentFixture()
	f.storage.uploadErr = errors.New("bucket missing")

	_, err := f.svc.Upload(context.Background(), UploadRequest{
		Filename: "msa.txt",
		MimeType: "text/plain",
		Data:     strings.NewReader(contractText),
	})
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestDocumentService_UploadCleansUpOnRecordFailure(t *testing.T) {
	t.Run("file record", func(t *testing.T) {
		f := newDocumentFixture()
		f.files.createErr = errors.New("constraint violation")

		_, err := f.svc.Upload(context.Background(), UploadRequest{
			Filename: "msa.txt",
			MimeType: "text/plain",
			Data:     strings.NewReader(contractText),
		})
		require.Error(t, err)
		assert.Zero(t, f.storage.len())
	})

	t.Run("document record", func(t *testing.T) {
		f := newDocumentFixture()
		f.docs.createErr = errors.New("constraint violation")

		_, err := f.svc.Upload(context.Background(), UploadRequest{
			Filename: "msa.txt",
			MimeType: "text/plain",
			Data:     strings.NewReader(contractText),
		})
		require.Error(t, err)
		assert.Zero(t, f.storage.len())
		assert.Len(t, f.files.deleted, 1)
	})
}

func TestDocumentService_GetDocumentNotFound(t *testing.T) {
	f := newDocumentFixture()
	_, err := f.svc.GetDocument(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentService_Download(t *testing.T) {
	f := newDocumentFixture()

	res, err := f.svc.Upload(context.Background(), UploadRequest{
		Filename: "msa.txt",
		MimeType: "text/plain",
		Data:     strings.NewReader(contractText),
	})
	require.NoError(t, err)

	dl, err := f.svc.Download(context.Background(), res.Document.ID)
	require.NoError(t, err)
	defer dl.Reader.Close()

	body, err := io.ReadAll(dl.Reader)
	require.NoError(t, err)
	assert.Equal(t, contractText, string(body))
	assert.Equal(t, "msa.txt", dl.File.Filename)

	_, err = f.svc.Download(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentService_RequiresDependencies(t *testing.T) {
	svc := NewDocumentService()
	_, err := svc.Upload(context.Background(), UploadRequest{Filename: "a.txt", Data: strings.NewReader("x")})
	assert.Error(t, err)
	assert.Equal(t, DefaultMaxUploadBytes, svc.MaxUploadBytes())
}

func TestPlainTextExtractor(t *testing.T) {
	ex := PlainTextExtractor{}
	assert.True(t, ex.Supports("text/plain"))
	assert.True(t, ex.Supports("Text/Markdown; charset=utf-8"))
	assert.False(t, ex.Supports("application/pdf"))

	got, err := ex.Extract(context.Background(), []byte("\ufeff"+contractText), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, contractText, got.Text)
	require.Len(t, got.Clauses, 3)
	for i, c := range got.Clauses {
		assert.Equal(t, i, c.Position)
		assert.False(t, c.Type.IsSet())
	}

	_, err = ex.Extract(context.Background(), []byte{0xff, 0xfe, 0xfd}, "text/plain")
	assert.ErrorIs(t, err, ErrUnsupportedMimeType)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ex.Extract(ctx, []byte(contractText), "text/plain")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFingerprint(t *testing.T) {
	a := fingerprint([]byte("contract"))
	assert.Equal(t, a, fingerprint([]byte("contract")))
	assert.NotEqual(t, a, fingerprint([]byte("contract.")))
	assert.Len(t, a, 64)
}
