package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paperledger/internal/domain"
	"paperledger/internal/parser"
	"paperledger/internal/port"
)

const (
	ocrErrorMarker = "[OCR error] "
	maxLoggedReply = 500

	failureWriteTimeout = 30 * time.Second
)

var errNoText = errors.New("no text extracted")

// TransitionHook observes every persisted processing status change.
type TransitionHook func(docID int64, from, to domain.ProcessingStatus)

// PipelineService runs the OCR then extraction pipeline for one document and
// keeps its processing status consistent with the outcome.
type PipelineService interface {
	// Process runs the full pipeline. Step failures are recorded on the
	// document and returned as *domain.PipelineError. Any other failure after
	// the document entered processing is recorded as an internal error and
	// returned unchanged.
	Process(ctx context.Context, docID int64) (*domain.Document, error)
	// Reprocess checks ownership and the source file, then runs Process.
	Reprocess(ctx context.Context, docID, userID int64) (*domain.Document, error)
	GetStatus(ctx context.Context, docID, userID int64) (*domain.Document, error)
	// RecordFailure marks a document that is still processing as errored after
	// a run ended abnormally.
	RecordFailure(ctx context.Context, docID int64, cause error)
}

// PipelineOption configures a pipelineService.
type PipelineOption func(*pipelineService)

// WithTransitionHook registers a hook called after each status change.
func WithTransitionHook(h TransitionHook) PipelineOption {
	return func(s *pipelineService) {
		s.onTransition = h
	}
}

// WithPipelineLogger sets the logger. Defaults to a no-op logger.
func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(s *pipelineService) {
		s.logger = l
	}
}

type pipelineService struct {
	docRepo   port.DocumentRepository
	itemRepo  port.ItemRepository
	tagRepo   port.TagRepository
	files     port.FileStore
	ocr       port.TextExtractor
	extractor port.StructuredExtractor

	logger       *zap.Logger
	onTransition TransitionHook
}

// NewPipelineService creates a new PipelineService.
func NewPipelineService(
	docRepo port.DocumentRepository,
	itemRepo port.ItemRepository,
	tagRepo port.TagRepository,
	files port.FileStore,
	ocr port.TextExtractor,
	extractor port.StructuredExtractor,
	opts ...PipelineOption,
) PipelineService {
	s := &pipelineService{
		docRepo:   docRepo,
		itemRepo:  itemRepo,
		tagRepo:   tagRepo,
		files:     files,
		ocr:       ocr,
		extractor: extractor,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *pipelineService) Process(ctx context.Context, docID int64) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.FilePath == nil || *doc.FilePath == "" {
		return nil, domain.ErrNoSourceFile
	}

	log := s.logger.With(zap.Int64("document_id", doc.ID))
	start := time.Now()

	if doc.ProcessingStatus != domain.StatusProcessing {
		if err := s.persistStatus(ctx, doc, domain.StatusProcessing, nil); err != nil {
			return nil, fmt.Errorf("pipelineService.Process: %w", err)
		}
	}

	if err := s.run(ctx, doc, log); err != nil {
		var perr *domain.PipelineError
		if !errors.As(err, &perr) {
			if doc.ProcessingStatus == domain.StatusProcessing {
				s.recordError(ctx, doc, "internal: "+err.Error(), log)
			}
			return doc, err
		}
		log.Warn("pipeline step failed",
			zap.String("step", string(perr.Step)),
			zap.String("error", perr.Message),
			zap.Duration("elapsed", time.Since(start)))

		s.recordError(ctx, doc, perr.Error(), log)
		return doc, perr
	}

	log.Info("document processed",
		zap.Int("items", len(doc.Items)),
		zap.Duration("elapsed", time.Since(start)))
	return doc, nil
}

func (s *pipelineService) run(ctx context.Context, doc *domain.Document, log *zap.Logger) error {
	path, release, err := s.files.Localize(ctx, *doc.FilePath)
	if err != nil {
		return s.failOCR(ctx, doc, err, log)
	}
	defer release()

	ocrResult, err := s.ocr.Extract(ctx, path)
	if err != nil {
		return s.failOCR(ctx, doc, err, log)
	}
	if strings.TrimSpace(ocrResult.Text) == "" {
		return s.failOCR(ctx, doc, errNoText, log)
	}

	text := ocrResult.Text
	doc.OCRRawText = &text
	doc.OCRConfidence = decimal.NewNullDecimal(decimal.NewFromFloat(ocrResult.Confidence).Round(2))
	if err := s.docRepo.UpdateOCR(ctx, doc); err != nil {
		return fmt.Errorf("pipelineService.run: saving OCR text: %w", err)
	}
	log.Debug("OCR complete",
		zap.Int("chars", len(text)),
		zap.Int("pages", ocrResult.Pages),
		zap.Float64("confidence", ocrResult.Confidence))

	userTags, err := s.tagRepo.ListByUser(ctx, doc.UserID)
	if err != nil {
		return fmt.Errorf("pipelineService.run: loading tags: %w", err)
	}

	raw, err := s.extractor.Extract(ctx, text, tagNames(userTags))
	if err != nil {
		return domain.NewPipelineError(domain.StepAI, err)
	}

	log.Debug("model response", zap.String("reply", truncateRunes(raw, maxLoggedReply)))

	result := parser.Parse(raw)
	if !result.Success {
		log.Warn("unusable model response",
			zap.String("model", s.extractor.Model()),
			zap.String("error", result.Error),
			zap.String("raw_response", result.RawResponse))
		return &domain.PipelineError{
			Step:    domain.StepAI,
			Message: "could not parse model response: " + result.Error,
		}
	}
	for _, w := range result.Warnings {
		log.Debug("ignored model field", zap.String("warning", w))
	}

	mergeExtraction(doc, result)
	if doc.Date == nil {
		d := creationDate(doc)
		doc.Date = &d
	}
	items := buildItems(result)
	tagIDs := matchTags(result.SuggestedTags, userTags)

	from := doc.ProcessingStatus
	if err := s.transition(doc, domain.StatusCompleted, nil); err != nil {
		return err
	}
	if err := s.docRepo.CompleteExtraction(ctx, doc, items, tagIDs); err != nil {
		doc.ProcessingStatus = from
		return fmt.Errorf("pipelineService.run: saving extraction: %w", err)
	}
	s.notify(doc.ID, from, domain.StatusCompleted)

	doc.Items = items
	return nil
}

// failOCR stores the OCR error marker with zero confidence so status pollers
// can see why recognition failed.
func (s *pipelineService) failOCR(ctx context.Context, doc *domain.Document, cause error, log *zap.Logger) error {
	marker := ocrErrorMarker + cause.Error()
	doc.OCRRawText = &marker
	doc.OCRConfidence = decimal.NewNullDecimal(decimal.Zero)

	wctx, cancel := failureContext(ctx)
	defer cancel()
	if err := s.docRepo.UpdateOCR(wctx, doc); err != nil {
		log.Error("failed to save OCR error marker", zap.Error(err))
	}
	return domain.NewPipelineError(domain.StepOCR, cause)
}

// recordError persists the error status. The write outlives a run whose
// context expired or was cancelled, so the document never stays processing.
func (s *pipelineService) recordError(ctx context.Context, doc *domain.Document, msg string, log *zap.Logger) {
	wctx, cancel := failureContext(ctx)
	defer cancel()
	if err := s.persistStatus(wctx, doc, domain.StatusError, &msg); err != nil {
		log.Error("failed to record pipeline failure", zap.Error(err))
	}
}

func failureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
}

func (s *pipelineService) Reprocess(ctx context.Context, docID, userID int64) (*domain.Document, error) {
	doc, err := s.ownedDocument(ctx, docID, userID)
	if err != nil {
		return nil, err
	}
	if doc.FilePath == nil || *doc.FilePath == "" {
		return nil, domain.ErrNoSourceFile
	}
	exists, err := s.files.Exists(ctx, *doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("pipelineService.Reprocess: %w", err)
	}
	if !exists {
		return nil, domain.ErrSourceFileMissing
	}

	s.logger.Info("reprocessing document",
		zap.Int64("document_id", docID),
		zap.String("previous_status", string(doc.ProcessingStatus)))

	if _, err := s.Process(ctx, docID); err != nil {
		return nil, err
	}
	return s.withChildren(ctx, docID)
}

func (s *pipelineService) GetStatus(ctx context.Context, docID, userID int64) (*domain.Document, error) {
	if _, err := s.ownedDocument(ctx, docID, userID); err != nil {
		return nil, err
	}
	return s.withChildren(ctx, docID)
}

func (s *pipelineService) RecordFailure(ctx context.Context, docID int64, cause error) {
	log := s.logger.With(zap.Int64("document_id", docID))

	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		log.Error("cannot load document to record failure", zap.Error(err), zap.NamedError("cause", cause))
		return
	}
	if doc.ProcessingStatus == domain.StatusError {
		log.Debug("failure already recorded", zap.NamedError("cause", cause))
		return
	}
	if doc.ProcessingStatus != domain.StatusProcessing {
		log.Warn("run ended abnormally after status was settled",
			zap.String("status", string(doc.ProcessingStatus)),
			zap.NamedError("cause", cause))
		return
	}

	msg := "internal: " + cause.Error()
	if err := s.persistStatus(ctx, doc, domain.StatusError, &msg); err != nil {
		log.Error("failed to record failure", zap.Error(err), zap.NamedError("cause", cause))
	}
}

func (s *pipelineService) ownedDocument(ctx context.Context, docID, userID int64) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

// withChildren reloads the document with its items and tags.
func (s *pipelineService) withChildren(ctx context.Context, docID int64) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Items, err = s.itemRepo.ListByDocument(ctx, docID); err != nil {
		return nil, fmt.Errorf("pipelineService.withChildren: items: %w", err)
	}
	if doc.Tags, err = s.tagRepo.ListByDocument(ctx, docID); err != nil {
		return nil, fmt.Errorf("pipelineService.withChildren: tags: %w", err)
	}
	return doc, nil
}

// transition validates and applies a status change in memory.
func (s *pipelineService) transition(doc *domain.Document, to domain.ProcessingStatus, errMsg *string) error {
	if !doc.ProcessingStatus.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, doc.ProcessingStatus, to)
	}
	doc.ProcessingStatus = to
	doc.ProcessingError = errMsg
	return nil
}

func (s *pipelineService) persistStatus(ctx context.Context, doc *domain.Document, to domain.ProcessingStatus, errMsg *string) error {
	from, prevErr := doc.ProcessingStatus, doc.ProcessingError
	if err := s.transition(doc, to, errMsg); err != nil {
		return err
	}
	if err := s.docRepo.UpdateStatus(ctx, doc); err != nil {
		doc.ProcessingStatus, doc.ProcessingError = from, prevErr
		return err
	}
	s.notify(doc.ID, from, to)
	return nil
}

func (s *pipelineService) notify(docID int64, from, to domain.ProcessingStatus) {
	if s.onTransition != nil {
		s.onTransition(docID, from, to)
	}
}
