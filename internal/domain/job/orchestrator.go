package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/yanqian/weatherlens/internal/domain/imageedit"
	"github.com/yanqian/weatherlens/internal/domain/prompt"
	"github.com/yanqian/weatherlens/internal/domain/weather"
	apperrors "github.com/yanqian/weatherlens/pkg/errors"
	"github.com/yanqian/weatherlens/pkg/metrics"
)

// Stage labels used for metrics.
const (
	StageWeather = "weather"
	StagePrompt  = "prompt"
	StageStore   = "store"
	StageEdit    = "edit"
)

const maxKeyNameLen = 80

// Orchestrator runs each request through its pipeline stage with a bounded
// deadline and owns the lifetime of uploaded files.
type Orchestrator struct {
	cfg     Config
	weather weather.Service
	prompts prompt.Service
	editor  imageedit.Service
	uploads UploadStore
	images  ImagePreparer
	metrics *metrics.StageRecorder
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewOrchestrator is a wire provider for the request pipeline.
func NewOrchestrator(cfg Config, weatherSvc weather.Service, prompts prompt.Service, editor imageedit.Service, uploads UploadStore, images ImagePreparer, recorder *metrics.StageRecorder, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg.withDefaults(),
		weather: weatherSvc,
		prompts: prompts,
		editor:  editor,
		uploads: uploads,
		images:  images,
		metrics: recorder,
		logger:  logger.With("component", "job.orchestrator"),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Weather looks up the weather snapshot for a place and time.
func (o *Orchestrator) Weather(ctx context.Context, req weather.Request) (weather.Snapshot, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.cfg.WeatherTimeout)
	defer cancel()

	snap, err := o.weather.Lookup(ctx, req)
	err = o.deadline(ctx, err, "Weather lookup timed out")
	o.metrics.Observe(StageWeather, started, codeOf(err))
	return snap, err
}

// Prompt synthesizes an editing instruction from a snapshot.
func (o *Orchestrator) Prompt(ctx context.Context, req prompt.Request) (prompt.Response, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.cfg.PromptTimeout)
	defer cancel()

	resp, err := o.prompts.Synthesize(ctx, req)
	err = o.deadline(ctx, err, "Prompt generation timed out")
	o.metrics.Observe(StagePrompt, started, codeOf(err))
	return resp, err
}

// ProcessImage stores the upload, reads it back, runs the edit and always
// deletes the stored file before returning.
func (o *Orchestrator) ProcessImage(ctx context.Context, upload Upload, editPrompt string) (res Result, err error) {
	jobID := o.newID()
	log := o.logger.With("job_id", jobID, "filename", upload.Filename)
	log.Info("process_image", "state", StateReceived)
	defer func() {
		if r := recover(); r != nil {
			log.Error("process_image", "state", StateFailed, "panic", r)
			panic(r)
		}
		if err != nil {
			log.Warn("process_image", "state", StateFailed, "error", err)
			return
		}
		log.Info("process_image", "state", StateSucceeded)
	}()

	if upload.Content == nil {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "No image file provided", nil)
	}
	editPrompt = strings.TrimSpace(editPrompt)
	if editPrompt == "" {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Prompt is required", nil)
	}

	data, err := readLimited(upload.Content, o.cfg.MaxUploadBytes)
	if err != nil {
		return Result{}, err
	}

	storeStarted := time.Now()
	key := o.uploadKey(jobID, upload.Filename)
	obj, err := o.uploads.Put(ctx, key, data, upload.MimeType)
	if err != nil {
		err = apperrors.Wrap(apperrors.CodeUpstream, "Failed to store upload", err)
		o.metrics.Observe(StageStore, storeStarted, codeOf(err))
		return Result{}, err
	}
	o.metrics.UploadStored()
	defer o.release(ctx, log, obj.Key)
	log.Info("process_image", "state", StateFileStored, "key", obj.Key, "bytes", obj.Size)

	stored, mimeType, err := o.readBack(ctx, obj.Key, upload.MimeType)
	o.metrics.Observe(StageStore, storeStarted, codeOf(err))
	if err != nil {
		return Result{}, err
	}
	log.Info("process_image", "state", StateFileRead, "mime_type", mimeType, "bytes", len(stored))

	editStarted := time.Now()
	editCtx, cancel := context.WithTimeout(ctx, o.cfg.EditTimeout)
	defer cancel()
	log.Info("process_image", "state", StateModelInvoked)
	edited, err := o.editor.Edit(editCtx, imageedit.Request{Image: stored, MimeType: mimeType, Prompt: editPrompt})
	err = o.deadline(editCtx, err, "Image processing timed out")
	o.metrics.Observe(StageEdit, editStarted, codeOf(err))
	if err != nil {
		return Result{}, err
	}

	return Result{ModifiedImageURL: edited.URL, OriginalFileName: upload.Filename}, nil
}

func (o *Orchestrator) readBack(ctx context.Context, key, declared string) ([]byte, string, error) {
	rc, err := o.uploads.Get(ctx, key)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeUpstream, "Failed to read upload", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeUpstream, "Failed to read upload", err)
	}

	mimeType := strings.TrimSpace(declared)
	if o.images != nil {
		mimeType = o.images.DetectMIME(data, mimeType)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", apperrors.Wrap(apperrors.CodeInvalidInput, "Uploaded file is not an image", fmt.Errorf("detected %q", mimeType))
	}
	if o.images != nil {
		resized, resizedMIME, fitErr := o.images.Fit(data, mimeType)
		switch {
		case apperrors.IsCode(fitErr, apperrors.CodeInvalidInput):
			return nil, "", fitErr
		case fitErr != nil:
			o.logger.Warn("image resize skipped", "key", key, "error", fitErr)
		default:
			data, mimeType = resized, resizedMIME
		}
	}
	return data, mimeType, nil
}

// release deletes the stored upload on a context detached from the request so
// a disconnected client still gets its file removed.
func (o *Orchestrator) release(ctx context.Context, log *slog.Logger, key string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.CleanupTimeout)
	defer cancel()
	if err := o.uploads.Delete(cleanupCtx, key); err != nil {
		log.Error("upload cleanup failed", "key", key, "error", err)
		return
	}
	o.metrics.UploadReleased()
	log.Debug("upload deleted", "key", key)
}

func (o *Orchestrator) uploadKey(jobID, filename string) string {
	short := strings.ReplaceAll(jobID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%d-%s-%s", o.now().UnixMilli(), short, sanitizeFilename(filename))
}

func (o *Orchestrator) deadline(ctx context.Context, err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) || appErr.Code == apperrors.CodeUpstream {
			return apperrors.Wrap(apperrors.CodeUpstream, message, err)
		}
	}
	return err
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "Failed to read uploaded image", err)
	}
	if int64(len(data)) > max {
		return nil, apperrors.Wrap(apperrors.CodePayloadTooLarge, "Image exceeds maximum allowed size", nil)
	}
	if len(data) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "Uploaded image is empty", nil)
	}
	return data, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if len(name) > maxKeyNameLen {
		name = name[len(name)-maxKeyNameLen:]
	}
	if strings.Trim(name, "._") == "" {
		return "upload"
	}
	return name
}

func codeOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "internal"
}
