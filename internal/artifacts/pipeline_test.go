package artifacts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loussodesigns/opts/internal/intake"
	"github.com/loussodesigns/opts/internal/orders"
	"github.com/loussodesigns/opts/pkg/enums"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/qrcode"
	"github.com/loussodesigns/opts/pkg/storage/local"
	"github.com/loussodesigns/opts/pkg/workorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCodes struct {
	content string
	err     error
}

func (s *stubCodes) MakeTrackingArtifact(_ context.Context, orderID int64, content string) (qrcode.Artifact, error) {
	s.content = content
	if s.err != nil {
		return qrcode.Artifact{}, s.err
	}
	return qrcode.Artifact{WebPath: "/static/" + qrcode.FileName(orderID), PNG: []byte("png")}, nil
}

type renderCall struct {
	internal bool
	hasCode  bool
}

type stubRenderer struct {
	calls     []renderCall
	failFirst bool
}

func (s *stubRenderer) Render(_ context.Context, doc workorder.Document, includeTrackingCode bool) ([]byte, error) {
	s.calls = append(s.calls, renderCall{internal: includeTrackingCode, hasCode: len(doc.TrackingCodePNG) > 0})
	if s.failFirst && len(s.calls) == 1 {
		return nil, errors.New("font missing")
	}
	return []byte("%PDF"), nil
}

func (s *stubRenderer) FileName(clientName string, orderID int64, internal bool) string {
	return workorder.NewRenderer("lousso").FileName(clientName, orderID, internal)
}

type memStore struct{ saved map[string][]byte }

func (m *memStore) Save(_ context.Context, relPath string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[relPath] = data
	return "/static/" + relPath, nil
}

type stubRecorder struct {
	calls int
	paths orders.ArtifactPaths
	err   error
}

func (s *stubRecorder) RecordArtifacts(_ context.Context, _ int64, paths orders.ArtifactPaths) error {
	s.calls++
	s.paths = paths
	return s.err
}

type countingFailures struct{ kinds []string }

func (c *countingFailures) IncArtifactFailure(kind string) { c.kinds = append(c.kinds, kind) }

func newTestPipeline(t *testing.T, codes CodeGenerator, renderer DocumentRenderer, recorder PathRecorder, failures FailureCounter) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Params{
		BaseURL:  "https://opts.example.com/",
		Codes:    codes,
		Renderer: renderer,
		Store:    &memStore{},
		Recorder: recorder,
		Failures: failures,
	})
	require.NoError(t, err)
	return p
}

func TestRunProducesAllArtifacts(t *testing.T) {
	codes := &stubCodes{}
	renderer := &stubRenderer{}
	recorder := &stubRecorder{}
	p := newTestPipeline(t, codes, renderer, recorder, nil)

	result := p.Run(context.Background(), Input{OrderID: 42, Document: workorder.Document{ClientName: "Ada Lovelace"}})
	require.NoError(t, result.Err)
	assert.Empty(t, result.Missing)
	assert.Equal(t, "https://opts.example.com/scan/42", codes.content)

	assert.Equal(t, []renderCall{{internal: true, hasCode: true}, {internal: false, hasCode: false}}, renderer.calls)
	require.NotNil(t, result.Paths.InternalPDFPath)
	require.NotNil(t, result.Paths.ClientPDFPath)
	assert.Equal(t, "/static/work_orders/lousso_ada_lovelace_order_42.pdf", *result.Paths.InternalPDFPath)
	assert.Equal(t, "/static/work_orders/client_ada_lovelace_order_42.pdf", *result.Paths.ClientPDFPath)
	assert.Equal(t, "/static/qr/qr_42.png", *result.Paths.QRPath)

	assert.Equal(t, 1, recorder.calls, "paths are written back in one update")
	assert.Equal(t, result.Paths, recorder.paths)
}

func TestRunSkipsInternalCopyWithoutTrackingCode(t *testing.T) {
	renderer := &stubRenderer{}
	recorder := &stubRecorder{}
	failures := &countingFailures{}
	p := newTestPipeline(t, &stubCodes{err: errors.New("disk full")}, renderer, recorder, failures)

	result := p.Run(context.Background(), Input{OrderID: 7, Document: workorder.Document{ClientName: "Bo"}})
	require.Error(t, result.Err)
	assert.True(t, pkgerrors.IsCode(result.Err, pkgerrors.CodeArtifactGenerationFailed))
	assert.Equal(t, []enums.ArtifactKind{enums.ArtifactKindTrackingCode, enums.ArtifactKindInternalDocument}, result.Missing)
	assert.Equal(t, []renderCall{{internal: false, hasCode: false}}, renderer.calls)

	assert.Nil(t, recorder.paths.QRPath)
	assert.Nil(t, recorder.paths.InternalPDFPath)
	require.NotNil(t, recorder.paths.ClientPDFPath)
	assert.Len(t, failures.kinds, 2)
}

func TestRunContinuesAfterInternalRenderFailure(t *testing.T) {
	renderer := &stubRenderer{failFirst: true}
	recorder := &stubRecorder{}
	p := newTestPipeline(t, &stubCodes{}, renderer, recorder, nil)

	result := p.Run(context.Background(), Input{OrderID: 8, Document: workorder.Document{ClientName: "Bo"}})
	require.Error(t, result.Err)
	assert.Equal(t, []enums.ArtifactKind{enums.ArtifactKindInternalDocument}, result.Missing)
	assert.NotNil(t, recorder.paths.QRPath)
	assert.NotNil(t, recorder.paths.ClientPDFPath)
}

func TestRunReportsWriteBackFailure(t *testing.T) {
	p := newTestPipeline(t, &stubCodes{}, &stubRenderer{}, &stubRecorder{err: errors.New("db gone")}, nil)

	result := p.Run(context.Background(), Input{OrderID: 9})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "order artifacts incomplete")
	assert.ElementsMatch(t, []enums.ArtifactKind{
		enums.ArtifactKindTrackingCode,
		enums.ArtifactKindInternalDocument,
		enums.ArtifactKindClientDocument,
	}, result.Missing)
	assert.Nil(t, result.Paths.QRPath)
	assert.Nil(t, result.Paths.InternalPDFPath)
	assert.Nil(t, result.Paths.ClientPDFPath)
}

func TestRunWriteBackFailureKeepsEarlierMissingOnce(t *testing.T) {
	p := newTestPipeline(t, &stubCodes{err: errors.New("qr broke")}, &stubRenderer{}, &stubRecorder{err: errors.New("db gone")}, nil)

	result := p.Run(context.Background(), Input{OrderID: 10})
	require.Error(t, result.Err)
	assert.ElementsMatch(t, []enums.ArtifactKind{
		enums.ArtifactKindTrackingCode,
		enums.ArtifactKindInternalDocument,
		enums.ArtifactKindClientDocument,
	}, result.Missing)
	assert.Nil(t, result.Paths.ClientPDFPath)
}

func TestRunWithRealRenderers(t *testing.T) {
	root := t.TempDir()
	store, err := local.New(root, "/static")
	require.NoError(t, err)
	codes, err := qrcode.NewGenerator(store, 0)
	require.NoError(t, err)
	recorder := &stubRecorder{}

	p, err := NewPipeline(Params{
		BaseURL:  "http://localhost:8080",
		Codes:    codes,
		Renderer: workorder.NewRenderer("lousso"),
		Store:    store,
		Recorder: recorder,
	})
	require.NoError(t, err)

	order, err := intake.Build(intake.RawOrder{
		Name:         "Mary Jane",
		Email:        "mj@example.com",
		Phone:        "555",
		InvoiceNo:    "INV-77",
		ProductCodes: "5",
		Milestones:   []string{"In Production"},
		Notes:        "Deliver Friday",
	})
	require.NoError(t, err)

	result := p.Run(context.Background(), Input{OrderID: 77, Document: NewDocument(77, order, time.Now())})
	require.NoError(t, result.Err)

	for _, webPath := range []*string{result.Paths.QRPath, result.Paths.InternalPDFPath, result.Paths.ClientPDFPath} {
		require.NotNil(t, webPath)
		data, err := os.ReadFile(filepath.Join(root, strings.TrimPrefix(*webPath, "/static/")))
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestNewDocument(t *testing.T) {
	notes := "rush"
	trim := "Welt"
	doc := NewDocument(3, intake.Order{
		InvoiceNo: "INV-3",
		Notes:     &notes,
		Items:     []intake.Item{{Code: "0001"}, {Code: "FAB12"}},
		Spec:      intake.Spec{Quantity: 2, TrimStyle: &trim, RepairGlue: true},
	}, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, []string{"0001", "FAB12"}, doc.ProductCodes)
	assert.Equal(t, "Welt", doc.TrimStyle)
	assert.Equal(t, "rush", doc.Notes)
	assert.Equal(t, 2, doc.Quantity)
	assert.True(t, doc.RepairGlue)
	assert.Empty(t, doc.BackStyle)
}
