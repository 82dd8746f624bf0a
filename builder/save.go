package builder

import (
	"bytes"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/simwave/cms-go/pages"
)

// Uploader persists a locally selected image and returns its persisted
// backend-relative path. pages.Client (via ClientUploader) and the s3
// package both provide implementations.
type Uploader interface {
	Upload(ctx context.Context, file ImageFile) (string, error)
}

// ClientUploader adapts a pages.Client into an Uploader backed by the
// backend's multipart upload endpoint.
func ClientUploader(c *pages.Client) Uploader {
	return &clientUploader{client: c}
}

type clientUploader struct {
	client *pages.Client
}

func (u *clientUploader) Upload(ctx context.Context, file ImageFile) (string, error) {
	return u.client.UploadImage(ctx, file.Name, bytes.NewReader(file.Content))
}

// UploadFunc adapts a function to the Uploader interface.
type UploadFunc func(ctx context.Context, file ImageFile) (string, error)

func (f UploadFunc) Upload(ctx context.Context, file ImageFile) (string, error) {
	return f(ctx, file)
}

// SaveResult describes a completed save.
type SaveResult struct {
	Slug           string
	Sections       int
	UploadedImages int
	Duration       time.Duration
}

// SavePipeline produces a backend-safe document from the in-memory one and
// submits it atomically: resolve every pending image, strip every transient
// field, then replace the whole page in one request. A failure at any step
// aborts the save with the store untouched, so the user can retry without
// re-entering data.
type SavePipeline struct {
	store      *Store
	service    PageService
	uploader   Uploader
	logger     *zap.Logger
	maxUploads int
	gate       bool
}

// SaveOption configures a SavePipeline.
type SaveOption func(*SavePipeline)

// WithSaveLogger sets the pipeline's logger. Defaults to a no-op logger.
func WithSaveLogger(logger *zap.Logger) SaveOption {
	return func(p *SavePipeline) { p.logger = logger }
}

// WithMaxConcurrentUploads bounds how many section images upload in
// parallel. Defaults to 4.
func WithMaxConcurrentUploads(n int) SaveOption {
	return func(p *SavePipeline) { p.maxUploads = n }
}

// WithoutValidationGate disables the schema-validity check before
// submission. The backend accepts schema-invalid sections; gating is the
// recommended default so a document can't be published with a section
// below its declared minimums.
func WithoutValidationGate() SaveOption {
	return func(p *SavePipeline) { p.gate = false }
}

// NewSavePipeline creates a save pipeline for the given store. Uploads go
// through uploader; the submit goes through service (normally the same
// pages.Client the store loads from).
func NewSavePipeline(store *Store, service PageService, uploader Uploader, opts ...SaveOption) *SavePipeline {
	p := &SavePipeline{
		store:      store,
		service:    service,
		uploader:   uploader,
		logger:     zap.NewNop(),
		maxUploads: 4,
		gate:       true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Save runs the pipeline: snapshot, validate, resolve pending images
// concurrently, strip transients, submit. The submit is not issued until
// every upload has settled; the first upload failure cancels the rest and
// aborts the save. On success the caller should Load the document again so
// local state reflects what the backend actually persisted.
func (p *SavePipeline) Save(ctx context.Context) (*SaveResult, error) {
	start := time.Now()

	snapshot, sess, err := p.store.snapshotForSave()
	if err != nil {
		return nil, err
	}

	// The save is tagged with the session it was issued for. Cancelling the
	// session (Reset, or Load of another slug) cancels in-flight uploads
	// and the submit.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(sess.ctx, cancel)
	defer stop()

	if p.gate {
		if err := p.validateSections(snapshot.Sections); err != nil {
			savesTotal.WithLabelValues(saveStatusValidation).Inc()
			return nil, err
		}
	}

	uploaded, err := p.resolveImages(ctx, snapshot.Sections)
	if err != nil {
		savesTotal.WithLabelValues(saveStatusUpload).Inc()
		return nil, err
	}

	for i := range snapshot.Sections {
		stripTransient(snapshot.Sections[i].Data)
	}

	if p.superseded(sess) {
		savesTotal.WithLabelValues(saveStatusSuperseded).Inc()
		return nil, ErrSessionSuperseded
	}

	if err := p.service.UpsertPage(ctx, snapshot); err != nil {
		savesTotal.WithLabelValues(saveStatusSubmit).Inc()
		return nil, &SubmitError{Err: err}
	}

	if p.superseded(sess) {
		// The document landed, but this session no longer owns the store;
		// the result must not be written back into a newer session's state.
		savesTotal.WithLabelValues(saveStatusSuperseded).Inc()
		return nil, ErrSessionSuperseded
	}
	p.store.markSaved(sess.token)

	savesTotal.WithLabelValues(saveStatusOK).Inc()
	result := &SaveResult{
		Slug:           snapshot.Slug,
		Sections:       len(snapshot.Sections),
		UploadedImages: uploaded,
		Duration:       time.Since(start),
	}
	p.logger.Info("saved document",
		zap.String("slug", result.Slug),
		zap.Int("sections", result.Sections),
		zap.Int("uploaded_images", result.UploadedImages),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (p *SavePipeline) superseded(sess session) bool {
	return p.store.SessionToken() != sess.token || sess.ctx.Err() != nil
}

// validateSections checks every section against its template schema before
// any upload cost is paid.
func (p *SavePipeline) validateSections(sections []pages.Section) error {
	for _, section := range sections {
		result, err := p.store.registry.Validate(TemplateID(section.TemplateID), section.Data)
		if err != nil {
			return &SectionValidationError{
				SectionID: section.ID,
				Errors:    []ValidationError{{Field: "templateId", Message: err.Error()}},
			}
		}
		if !result.Valid {
			return &SectionValidationError{SectionID: section.ID, Errors: result.Errors}
		}
	}
	return nil
}

// resolveImages uploads every pending section image and assigns the
// persisted paths into the snapshot. Uploads for distinct sections run
// concurrently under a bounded semaphore; the first failure cancels the
// rest and is reported with the originating section id.
func (p *SavePipeline) resolveImages(ctx context.Context, sections []pages.Section) (int, error) {
	type pending struct {
		index int
		file  ImageFile
	}
	var work []pending
	for i := range sections {
		if file, ok := pendingImage(sections[i].Data); ok {
			work = append(work, pending{index: i, file: file})
		}
	}
	if len(work) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, p.maxUploads)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, item := range work {
		wg.Add(1)
		go func(item pending) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			section := &sections[item.index]
			path, err := p.uploader.Upload(ctx, item.file)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				imageUploadsTotal.WithLabelValues("error").Inc()
				if firstErr == nil {
					firstErr = &UploadError{SectionID: section.ID, Err: err}
					cancel()
				}
				return
			}
			imageUploadsTotal.WithLabelValues("ok").Inc()
			section.Data[FieldImage] = path
			p.logger.Debug("resolved pending image",
				zap.String("section", section.ID),
				zap.String("path", path),
			)
		}(item)
	}

	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	// The caller or the session cancelled mid-flight: some uploads may have
	// been skipped, and a partially-resolved document must never submit.
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(work), nil
}
