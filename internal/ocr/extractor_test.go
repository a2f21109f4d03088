package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	regions map[string][]Region
	errs    map[string]error
	calls   []string
}

func (f *fakeBackend) Recognize(_ context.Context, path string) ([]Region, error) {
	f.calls = append(f.calls, filepath.Base(path))
	if err := f.errs[filepath.Base(path)]; err != nil {
		return nil, err
	}
	return f.regions[filepath.Base(path)], nil
}

func (f *fakeBackend) Ping(context.Context) error { return nil }

type fakeRasterizer struct {
	pages   []string
	err     error
	cleaned bool
}

func (f *fakeRasterizer) Rasterize(context.Context, string) ([]string, func(), error) {
	if f.err != nil {
		return nil, func() {}, f.err
	}
	return f.pages, func() { f.cleaned = true }, nil
}

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	return path
}

func TestSummarize(t *testing.T) {
	text, conf := summarize([]Region{{Text: "CARREFOUR", Confidence: 0.9}, {Text: "Pain 1.20", Confidence: 0.8}})

	assert.Equal(t, "CARREFOUR\nPain 1.20", text)
	assert.InDelta(t, 85.0, conf, 1e-9)
}

func TestSummarize_NoRegions(t *testing.T) {
	text, conf := summarize(nil)

	assert.Empty(t, text)
	assert.Zero(t, conf)
}

func TestSummarize_RoundsToTwoDecimals(t *testing.T) {
	_, conf := summarize([]Region{{Text: "a", Confidence: 0.91234}, {Text: "b", Confidence: 0.8}})

	assert.InDelta(t, 85.62, conf, 1e-9)
}

func TestExtract_MissingFile(t *testing.T) {
	e := NewExtractor(&fakeBackend{})

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"))

	assert.True(t, IsReason(err, ReasonFileMissing))
	assert.Contains(t, err.Error(), "gone.jpg")
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	backend := &fakeBackend{}
	e := NewExtractor(backend)

	_, err := e.Extract(context.Background(), touch(t, "notes.txt"))

	assert.True(t, IsReason(err, ReasonUnsupportedFormat))
	assert.Empty(t, backend.calls)
}

func TestExtract_Image(t *testing.T) {
	backend := &fakeBackend{regions: map[string][]Region{
		"receipt.JPG": {{Text: "CARREFOUR", Confidence: 0.95}, {Text: "01/01/2024", Confidence: 0.85}},
	}}
	e := NewExtractor(backend)

	res, err := e.Extract(context.Background(), touch(t, "receipt.JPG"))

	require.NoError(t, err)
	assert.Equal(t, "CARREFOUR\n01/01/2024", res.Text)
	assert.InDelta(t, 90.0, res.Confidence, 1e-9)
	assert.Equal(t, 1, res.Pages)
}

func TestExtract_ImageWithoutRegionsIsEmptySuccess(t *testing.T) {
	e := NewExtractor(&fakeBackend{})

	res, err := e.Extract(context.Background(), touch(t, "blank.png"))

	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Zero(t, res.Confidence)
}

func TestExtract_BackendErrorPassesThrough(t *testing.T) {
	backend := &fakeBackend{errs: map[string]error{"r.png": newError(ReasonUnreachable, errors.New("refused"))}}
	e := NewExtractor(backend)

	_, err := e.Extract(context.Background(), touch(t, "r.png"))

	assert.True(t, IsReason(err, ReasonUnreachable))
}

func TestExtract_PDFSkipsFailedAndEmptyPages(t *testing.T) {
	backend := &fakeBackend{
		regions: map[string][]Region{
			"doc_page_1.png": {{Text: "Page one", Confidence: 0.9}},
			"doc_page_3.png": {{Text: "Page three", Confidence: 0.7}},
			"doc_page_4.png": {{Text: "   ", Confidence: 0.2}},
		},
		errs: map[string]error{"doc_page_2.png": errors.New("boom")},
	}
	raster := &fakeRasterizer{pages: []string{"/tmp/doc_page_1.png", "/tmp/doc_page_2.png", "/tmp/doc_page_3.png", "/tmp/doc_page_4.png"}}
	e := NewExtractor(backend, WithRasterizer(raster))

	res, err := e.Extract(context.Background(), touch(t, "doc.pdf"))

	require.NoError(t, err)
	assert.Equal(t, "--- Page 1 ---\n\nPage one\n\n--- Page 3 ---\n\nPage three", res.Text)
	assert.InDelta(t, 80.0, res.Confidence, 1e-9)
	assert.Equal(t, 2, res.Pages)
	assert.True(t, raster.cleaned)
	assert.Len(t, backend.calls, 4)
}

func TestExtract_PDFWithNoExtractablePages(t *testing.T) {
	backend := &fakeBackend{errs: map[string]error{"doc_page_1.png": errors.New("boom")}}
	raster := &fakeRasterizer{pages: []string{"/tmp/doc_page_1.png", "/tmp/doc_page_2.png"}}
	e := NewExtractor(backend, WithRasterizer(raster))

	_, err := e.Extract(context.Background(), touch(t, "doc.pdf"))

	assert.True(t, IsReason(err, ReasonNoPages))
	assert.True(t, raster.cleaned)
}

func TestExtract_PDFRasterizeFailure(t *testing.T) {
	e := NewExtractor(&fakeBackend{}, WithRasterizer(&fakeRasterizer{err: errors.New("corrupt xref")}))

	_, err := e.Extract(context.Background(), touch(t, "doc.pdf"))

	assert.True(t, IsReason(err, ReasonNoPages))
	assert.Contains(t, err.Error(), "corrupt xref")
}

func TestCombinePages_Empty(t *testing.T) {
	_, err := combinePages(nil, 3)

	assert.True(t, IsReason(err, ReasonNoPages))
	assert.Contains(t, err.Error(), "0 of 3 pages")
}
