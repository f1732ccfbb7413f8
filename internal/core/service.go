package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"certbatch/internal/batch"
	"certbatch/internal/config"
	"certbatch/internal/errs"
	"certbatch/internal/ingest"
	"certbatch/internal/render"
	"certbatch/internal/roster"
	"certbatch/internal/schema"
	"certbatch/internal/storage"
	"certbatch/internal/template"
)

// Service provides the core business logic for certificate batch
// generation.
type Service struct {
	store    storage.Store
	ingestor *ingest.Ingestor
	limiter  *BatchLimiter
	logger   *slog.Logger

	defaults     template.Defaults
	workers      int
	batchTimeout time.Duration
	retainFor    time.Duration

	mu      sync.RWMutex
	batches map[string]*activeBatch
}

type activeBatch struct {
	ID         string
	TemplateID string
	FileName   string
	Cancel     context.CancelFunc
	Progress   BatchProgress
	Result     *BatchResult
	Done       chan struct{}
	Listeners  []chan BatchProgress
	ListenerMu sync.Mutex
}

// NewService creates a new Service instance.
func NewService(cfg *config.Config, store storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store: store,
		ingestor: ingest.New(ingest.Config{
			MaxFileSize: cfg.Ingest.MaxFileSize,
			MaxRows:     cfg.Ingest.MaxRows,
		}),
		limiter: NewBatchLimiter(cfg.Batch.MaxConcurrent, cfg.Batch.MaxWaitTime),
		logger:  logger,
		defaults: template.Defaults{
			MinFontSize: cfg.Render.MinFontSize,
			MaxFontSize: cfg.Render.MaxFontSize,
		},
		workers:      cfg.Batch.Workers,
		batchTimeout: cfg.Batch.Timeout,
		retainFor:    cfg.Batch.RetainFor,
		batches:      make(map[string]*activeBatch),
	}
}

// Limiter exposes the batch limiter for shutdown draining and monitoring.
func (s *Service) Limiter() *BatchLimiter {
	return s.limiter
}

// ListTemplates returns the available templates.
func (s *Service) ListTemplates(ctx context.Context) ([]storage.TemplateInfo, error) {
	return s.store.List(ctx)
}

// StartBatch begins an asynchronous generation batch. It returns the batch
// ID immediately; use Subscribe or GetProgress for updates. The request
// context is used only to wait for a batch slot; the batch itself runs
// under its own timeout.
func (s *Service) StartBatch(ctx context.Context, templateID, fileName string, fileData []byte) (string, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	batchID := uuid.New().String()
	batchCtx, cancel := context.WithTimeout(context.Background(), s.batchTimeout)

	b := &activeBatch{
		ID:         batchID,
		TemplateID: templateID,
		FileName:   fileName,
		Cancel:     cancel,
		Progress: BatchProgress{
			BatchID:    batchID,
			TemplateID: templateID,
			Phase:      PhaseStarting,
			FileName:   fileName,
		},
		Done:      make(chan struct{}),
		Listeners: make([]chan BatchProgress, 0),
	}

	s.mu.Lock()
	s.batches[batchID] = b
	s.mu.Unlock()

	go func() {
		defer s.limiter.Release()
		defer cancel()
		s.processBatch(batchCtx, b, fileData)
	}()

	return batchID, nil
}

// Subscribe returns a channel that receives progress updates. The channel
// is closed when the batch completes.
func (s *Service) Subscribe(batchID string) (<-chan BatchProgress, error) {
	b, err := s.batch(batchID)
	if err != nil {
		return nil, err
	}

	ch := make(chan BatchProgress, 16)

	b.ListenerMu.Lock()
	closed := b.Listeners == nil && b.Progress.Phase.Terminal()
	if !closed {
		b.Listeners = append(b.Listeners, ch)
	}
	// Send current progress immediately
	select {
	case ch <- b.Progress:
	default:
	}
	if closed {
		close(ch)
	}
	b.ListenerMu.Unlock()

	return ch, nil
}

// Cancel requests cooperative cancellation of an in-progress batch.
func (s *Service) Cancel(batchID string) error {
	b, err := s.batch(batchID)
	if err != nil {
		return err
	}
	b.Cancel()
	return nil
}

// Result returns the result of a batch, blocking until it completes.
func (s *Service) Result(ctx context.Context, batchID string) (*BatchResult, error) {
	b, err := s.batch(batchID)
	if err != nil {
		return nil, err
	}
	select {
	case <-b.Done:
		return b.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetProgress returns the current progress without blocking.
func (s *Service) GetProgress(batchID string) (BatchProgress, error) {
	b, err := s.batch(batchID)
	if err != nil {
		return BatchProgress{}, err
	}
	b.ListenerMu.Lock()
	p := b.Progress
	b.ListenerMu.Unlock()
	return p, nil
}

// Archive returns the stored zip for a completed batch.
func (s *Service) Archive(ctx context.Context, batchID string) ([]byte, error) {
	b, err := s.batch(batchID)
	if err != nil {
		return nil, err
	}
	select {
	case <-b.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if b.Result == nil || b.Result.ArchiveHandle == "" {
		return nil, errs.Newf(errs.CodeBatchNotFound, "batch %s produced no archive", batchID)
	}
	return s.store.Fetch(ctx, b.Result.ArchiveHandle)
}

func (s *Service) batch(batchID string) (*activeBatch, error) {
	s.mu.RLock()
	b, ok := s.batches[batchID]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.Newf(errs.CodeBatchNotFound, "batch not found: %s", batchID)
	}
	return b, nil
}

// setProgress updates the batch state and fans it out to listeners.
func (b *activeBatch) setProgress(mutate func(*BatchProgress)) {
	b.ListenerMu.Lock()
	defer b.ListenerMu.Unlock()

	mutate(&b.Progress)
	for _, ch := range b.Listeners {
		select {
		case ch <- b.Progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// closeListeners closes all listener channels.
func (b *activeBatch) closeListeners() {
	b.ListenerMu.Lock()
	defer b.ListenerMu.Unlock()

	for _, ch := range b.Listeners {
		close(ch)
	}
	b.Listeners = nil
}

// cleanup removes the batch from tracking after the retention delay.
func (s *Service) cleanup(batchID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.batches, batchID)
		s.mu.Unlock()
	})
}

// prepared is the common front half of a batch and of a dry run: parsed
// rows, resolved headers, the normalized deduplicated roster, and the
// template catalog.
type prepared struct {
	catalog *template.Catalog
	mapping map[string]string
	extras  []string
	records []roster.Record
	report  *ingest.Report
}

// prepare runs ingestion, header resolution, normalization, deduplication
// and template enumeration. Any error here is structural: nothing has been
// rendered yet and the whole batch is rejected.
func (s *Service) prepare(ctx context.Context, templateID, fileName string, fileData []byte) (*prepared, error) {
	cache := template.NewCache(s.defaults)
	cat, err := cache.Catalog(templateID, func() ([]byte, error) {
		return s.store.Template(ctx, templateID)
	})
	if err != nil {
		return nil, err
	}

	res, err := s.ingestor.Ingest(fileData, fileName)
	if err != nil {
		return nil, err
	}

	mapping, err := schema.ResolveHeaders(res.Headers)
	if err != nil {
		return nil, err
	}

	records := roster.Dedupe(roster.Normalize(res, mapping, res.Report))

	p := &prepared{
		catalog: cat,
		mapping: make(map[string]string, len(mapping.Columns)),
		records: records,
		report:  res.Report,
	}
	for pos, field := range mapping.Columns {
		p.mapping[res.Headers[pos]] = string(field)
	}
	for pos := range mapping.Extras {
		p.extras = append(p.extras, res.Headers[pos])
	}
	return p, nil
}

// Analyze is the dry run: it validates the upload against the template and
// reports what a batch would do, producing no certificates.
func (s *Service) Analyze(ctx context.Context, templateID, fileName string, fileData []byte) (*ValidationSummary, error) {
	p, err := s.prepare(ctx, templateID, fileName, fileData)
	if err != nil {
		return nil, err
	}
	return &ValidationSummary{
		TemplateID: templateID,
		FileName:   fileName,
		Columns:    p.mapping,
		Extras:     p.extras,
		Recipients: len(p.records),
		Report:     p.report.Entries,
	}, nil
}

// orchestrator builds the worker pool for one batch.
func (s *Service) orchestrator(b *activeBatch) batch.Orchestrator {
	return batch.Orchestrator{
		Renderer: render.Renderer{},
		Workers:  s.workers,
		OnProgress: func(done, total int) {
			b.setProgress(func(p *BatchProgress) {
				// Workers race to publish their counter reads; never
				// let a stale read walk the count backwards.
				if done > p.Done {
					p.Done = done
				}
				p.Total = total
			})
		},
	}
}
