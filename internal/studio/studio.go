package studio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"ai-photo-studio/internal/board"
	"ai-photo-studio/internal/gemini"
	"ai-photo-studio/internal/imageproc"
	"ai-photo-studio/internal/limiter"
	"ai-photo-studio/internal/prompt"
)

// Editor edits images according to a text instruction.
type Editor interface {
	Edit(ctx context.Context, images []gemini.ImageInput, prompt string) (gemini.Image, error)
}

// Images are the uploads of one invocation. Reference is only read in
// reference mode.
type Images struct {
	Source    imageproc.Payload
	Reference imageproc.Payload
}

type Options struct {
	Editor  Editor
	Board   board.Store
	Limiter *limiter.Limiter
	Logger  *slog.Logger

	// TaskTimeout bounds a single edit call. Time spent queued in the
	// limiter does not count.
	TaskTimeout time.Duration
}

type Studio struct {
	editor      Editor
	board       board.Store
	limiter     *limiter.Limiter
	logger      *slog.Logger
	taskTimeout time.Duration
}

// Outcome is the settled state of one invocation. Images is aligned with
// Results; failed slots hold a zero Image.
type Outcome struct {
	Invocation uint64
	Results    []board.Result
	Images     []gemini.Image
	Stale      bool
}

func New(opts Options) (*Studio, error) {
	if opts.Editor == nil {
		return nil, errors.New("studio: editor is required")
	}
	store := opts.Board
	if store == nil {
		store = board.NewMemory()
	}
	lim := opts.Limiter
	if lim == nil {
		lim = limiter.New(1)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Studio{
		editor:      opts.Editor,
		board:       store,
		limiter:     lim,
		logger:      logger,
		taskTimeout: opts.TaskTimeout,
	}, nil
}

func (s *Studio) Snapshot(ctx context.Context, key string) (board.Snapshot, error) {
	return s.board.Snapshot(ctx, key)
}

// Validate checks the mode preconditions. It never touches the network.
func (s Settings) Validate(images Images) error {
	hasSource := len(images.Source.Data) > 0
	switch s.Mode {
	case prompt.ModeWedding:
		if !hasSource || (len(s.Themes) == 0 && !s.KeepOriginal) {
			return &ValidationError{Message: msgNeedTheme}
		}
	case prompt.ModeStreet:
		if !hasSource || len(s.Themes) == 0 {
			return &ValidationError{Message: msgNeedTheme}
		}
	case prompt.ModeRestore:
		if !hasSource || len(s.Themes) == 0 {
			return &ValidationError{Message: msgNeedRestore}
		}
	case prompt.ModeReference:
		if !hasSource || len(images.Reference.Data) == 0 || len(s.Themes) == 0 {
			return &ValidationError{Message: msgNeedReference}
		}
	default:
		return &ValidationError{Message: msgBadMode}
	}
	return nil
}

// Job is an invocation whose loading board has been published and whose
// tasks have not started yet.
type Job struct {
	ID    uint64
	Key   string
	Tasks int

	settings Settings
	images   Images
	themes   []string
	logger   *slog.Logger
}

// Generate runs one invocation for key: one task per theme and variation,
// all scheduled through the shared limiter. It returns once every task has
// settled. A failed task only fails its own slot. A newer invocation for
// the same key makes this one stale; its results are then not published.
func (s *Studio) Generate(ctx context.Context, key string, settings Settings, images Images) (Outcome, error) {
	job, err := s.Start(ctx, key, settings, images)
	if err != nil {
		return Outcome{}, err
	}
	return s.Run(ctx, job)
}

// Start validates the request and publishes the loading board. Once it
// returns, a snapshot of key already reflects the new invocation.
func (s *Studio) Start(ctx context.Context, key string, settings Settings, images Images) (*Job, error) {
	settings = settings.Normalize()
	boardCtx := context.WithoutCancel(ctx)

	if err := settings.Validate(images); err != nil {
		s.reject(boardCtx, key, err)
		return nil, err
	}

	themes := settings.ResolveThemes()
	total := len(themes) * settings.Variations

	id, err := s.board.Begin(boardCtx, key, total)
	if err != nil {
		return nil, &UnexpectedError{Err: err}
	}
	logger := s.logger.With("key", key, "invocation", id, "mode", settings.Mode)
	logger.Info("generation started", "themes", len(themes), "variations", settings.Variations, "tasks", total)

	return &Job{
		ID:       id,
		Key:      key,
		Tasks:    total,
		settings: settings,
		images:   images,
		themes:   themes,
		logger:   logger,
	}, nil
}

// Run executes the tasks of a started job and settles its board.
func (s *Studio) Run(ctx context.Context, job *Job) (Outcome, error) {
	boardCtx := context.WithoutCancel(ctx)
	key, id, total := job.Key, job.ID, job.Tasks
	settings, themes, logger := job.settings, job.themes, job.logger

	inputs, err := buildInputs(settings, job.images)
	if err != nil {
		uerr := &UnexpectedError{Err: err}
		logger.Error("prepare inputs", "err", err)
		if ferr := s.board.Fail(boardCtx, key, id, uerr.Error()); ferr != nil && !errors.Is(ferr, board.ErrStale) {
			logger.Error("board fail", "err", ferr)
		}
		return Outcome{Invocation: id}, uerr
	}

	pending := make([]<-chan limiter.Result[gemini.Image], 0, total)
	for _, theme := range themes {
		text := settings.Prompt(theme)
		for range settings.Variations {
			pending = append(pending, limiter.Do(s.limiter, func() (gemini.Image, error) {
				taskCtx, cancel := s.taskContext(ctx)
				defer cancel()
				return s.editor.Edit(taskCtx, inputs, text)
			}))
		}
	}

	description := settings.Description()
	out := Outcome{
		Invocation: id,
		Results:    make([]board.Result, total),
		Images:     make([]gemini.Image, total),
	}
	for i, ch := range pending {
		r := <-ch
		if r.Err != nil {
			logger.Warn("task failed", "index", i, "err", r.Err)
			out.Results[i] = board.Result{Status: board.StatusFailed, Description: board.FailedDescription}
			continue
		}
		out.Images[i] = r.Value
		out.Results[i] = board.Result{
			Status:      board.StatusReady,
			Image:       r.Value.DataURL(),
			Description: description,
		}
	}

	if err := s.board.Settle(boardCtx, key, id, out.Results); err != nil {
		if errors.Is(err, board.ErrStale) {
			logger.Info("generation superseded")
			out.Stale = true
			return out, nil
		}
		return out, &UnexpectedError{Err: err}
	}
	logger.Info("generation settled", "failed", countFailed(out.Results))
	return out, nil
}

// reject publishes a validation error as an empty board so a previous
// invocation still in flight can no longer overwrite it.
func (s *Studio) reject(ctx context.Context, key string, verr error) {
	id, err := s.board.Begin(ctx, key, 0)
	if err == nil {
		err = s.board.Fail(ctx, key, id, UserMessage(verr))
	}
	if err != nil && !errors.Is(err, board.ErrStale) {
		s.logger.Error("board reject", "key", key, "err", err)
	}
}

func (s *Studio) taskContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.taskTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.taskTimeout)
}

// buildInputs prepares the images sent with every task. Wedding uploads are
// reframed once per invocation; reference mode sends the subject first.
func buildInputs(settings Settings, images Images) ([]gemini.ImageInput, error) {
	src := images.Source
	if settings.Mode == prompt.ModeWedding {
		var err error
		src, err = imageproc.Preprocess(src, settings.PrepOptions())
		if err != nil {
			return nil, err
		}
	}
	inputs := []gemini.ImageInput{{Data: src.Data, MimeType: src.MimeType}}
	if settings.Mode == prompt.ModeReference {
		ref := images.Reference
		inputs = append(inputs, gemini.ImageInput{Data: ref.Data, MimeType: ref.MimeType})
	}
	return inputs, nil
}

func countFailed(results []board.Result) int {
	n := 0
	for _, r := range results {
		if r.Status == board.StatusFailed {
			n++
		}
	}
	return n
}
