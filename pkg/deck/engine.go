package deck

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminschreck/go-deck/pkg/deck/fetch"
	"github.com/benjaminschreck/go-deck/pkg/deck/pml"
)

// Result is a finished presentation.
type Result struct {
	Data        []byte
	ContentType string
	// FileName is the attachment name including the .pptx extension.
	FileName string
	// Slides is the number of slides, cover and closing included.
	Slides int
	// MissingMedia lists the 1-based ordinals of slides whose image could
	// not be fetched or embedded. Those slides carry text only.
	MissingMedia []int
}

// Engine turns content units into presentations. An Engine is safe for
// concurrent use; every Generate call assembles its own package.
type Engine struct {
	config  *Config
	fetcher fetch.Fetcher
	logger  *Logger
	now     func() time.Time
	newID   func() uuid.UUID
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithFetcher replaces the fetcher built from the configuration.
func WithFetcher(f fetch.Fetcher) EngineOption {
	return func(e *Engine) { e.fetcher = f }
}

// WithLogger sets the engine logger. The global logger is used otherwise.
func WithLogger(l *Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the clock used for the creation timestamp.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithIdentifiers sets the generator of package identifiers.
func WithIdentifiers(newID func() uuid.UUID) EngineOption {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine. A nil config means the global configuration;
// otherwise unset fields of config take their defaults.
func New(ctx context.Context, config *Config, opts ...EngineOption) (*Engine, error) {
	if config == nil {
		config = GetGlobalConfig()
	} else {
		config = NewConfigWithDefaults(config)
	}
	if err := config.Validate(); err != nil {
		return nil, WithContext(err, "configure engine", nil)
	}

	e := &Engine{
		config: config,
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = GetLogger()
	}
	if e.fetcher == nil {
		f, err := NewFetcher(ctx, config)
		if err != nil {
			return nil, WithContext(err, "configure engine", nil)
		}
		e.fetcher = f
	}
	return e, nil
}

// NewFetcher builds the fetcher described by config: http, https and data
// always, file when MediaRoot is set, s3 when enabled, all behind a cache
// when CacheMaxSize is positive.
func NewFetcher(ctx context.Context, config *Config) (fetch.Fetcher, error) {
	mux := fetch.NewMux()

	httpFetcher := fetch.NewHTTP(&http.Client{Timeout: config.FetchTimeout}, config.MaxImageBytes)
	mux.Handle("http", httpFetcher)
	mux.Handle("https", httpFetcher)
	mux.Handle("data", fetch.DataURI{MaxBytes: config.MaxImageBytes})

	if config.MediaRoot != "" {
		files, err := fetch.NewFile(config.MediaRoot, config.MaxImageBytes)
		if err != nil {
			return nil, err
		}
		mux.Handle("file", files)
	}
	if config.S3.Enabled {
		s3, err := fetch.NewS3(ctx, config.S3.fetchConfig(), config.MaxImageBytes)
		if err != nil {
			return nil, err
		}
		mux.Handle("s3", s3)
	}

	if config.CacheMaxSize > 0 {
		return fetch.NewCache(mux, fetch.CacheConfig{MaxSize: config.CacheMaxSize, TTL: config.CacheTTL}), nil
	}
	return mux, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return *e.config
}

// ClearCache empties the image cache, if the engine has one.
func (e *Engine) ClearCache() {
	if c, ok := e.fetcher.(*fetch.Cache); ok {
		c.Clear()
	}
}

// Generate builds a presentation with one slide per unit, in order. Image
// fetch failures are logged and reported in Result.MissingMedia; malformed
// input is a *ValidationError; anything else is an internal error and no
// partial package is returned.
func (e *Engine) Generate(ctx context.Context, units []ContentUnit, opts Options) (*Result, error) {
	if err := validate(units, opts, e.config.MaxUnits); err != nil {
		return nil, err
	}

	styleName := opts.Style
	if styleName == "" {
		styleName = e.config.Style
	}
	style, _ := pml.StyleByName(styleName)
	fileName := opts.FileName
	if fileName == "" {
		fileName = e.config.FileName
	}

	slides := make([]ContentUnit, 0, len(units)+2)
	if opts.Cover != nil {
		slides = append(slides, normalizeUnit(*opts.Cover))
	}
	for _, u := range units {
		slides = append(slides, normalizeUnit(u))
	}
	if opts.Closing != nil {
		slides = append(slides, normalizeUnit(*opts.Closing))
	}

	log := e.logger.WithFields(Fields{"style": style.Name, "slides": len(slides)})
	started := time.Now()

	images := e.fetchAll(ctx, slides, log)
	if err := ctx.Err(); err != nil {
		return nil, WithContext(err, "generate", map[string]any{"stage": "fetch"})
	}

	meta := metadata{
		Creator:    e.config.Creator,
		Identifier: e.newID(),
		Created:    e.now(),
		Thumbnail:  e.config.Thumbnail,
	}
	data, missing, err := e.assemble(ctx, style, meta, slides, images, log)
	if err != nil {
		log.Error("generation failed: %v", err)
		return nil, err
	}

	log.Info("generated %s (%d bytes, %d missing images) in %s",
		attachmentName(fileName), len(data), len(missing), time.Since(started).Round(time.Millisecond))
	return &Result{
		Data:         data,
		ContentType:  pml.PackageContentType,
		FileName:     attachmentName(fileName),
		Slides:       len(slides),
		MissingMedia: missing,
	}, nil
}

// GenerateRequest is Generate for a decoded Request.
func (e *Engine) GenerateRequest(ctx context.Context, req *Request) (*Result, error) {
	return e.Generate(ctx, req.Units, req.Options())
}

// fetchAll resolves every image reference with bounded parallelism. The
// result is indexed like slides; nil means no image.
func (e *Engine) fetchAll(ctx context.Context, slides []ContentUnit, log *Logger) []*fetch.Image {
	images := make([]*fetch.Image, len(slides))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.FetchConcurrency)
	for i, unit := range slides {
		if unit.ImageReference == "" {
			continue
		}
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, e.config.FetchTimeout)
			defer cancel()
			img, err := e.fetcher.Fetch(fctx, unit.ImageReference)
			if err != nil {
				log.WithField("slide", i+1).Warn("image dropped: %v", err)
				return nil
			}
			images[i] = img
			return nil
		})
	}
	// fetch errors never fail the group
	_ = g.Wait()
	return images
}

// assemble runs the assembly state machine on the calling goroutine.
func (e *Engine) assemble(ctx context.Context, style pml.Style, meta metadata, slides []ContentUnit, images []*fetch.Image, log *Logger) (data []byte, missing []int, err error) {
	a := newAssembly(style, meta, log)
	defer func() {
		if r := recover(); r != nil {
			a.state = stateFailed
			data, missing, err = nil, nil, WithContext(RecoverError(r), "assemble", map[string]any{"state": a.state})
		}
	}()

	if err := a.init(); err != nil {
		return nil, nil, WithContext(err, "assemble", map[string]any{"stage": "init"})
	}
	for i, unit := range slides {
		if err := ctx.Err(); err != nil {
			a.fail(err)
			return nil, nil, WithContext(err, "assemble", map[string]any{"slide": i + 1})
		}
		_, dropped, err := a.appendSlide(unit, images[i])
		if err != nil {
			return nil, nil, WithContext(err, "assemble", map[string]any{"slide": i + 1})
		}
		if unit.ImageReference != "" && (images[i] == nil || dropped) {
			missing = append(missing, i+1)
		}
	}
	if err := a.render(); err != nil {
		return nil, nil, WithContext(err, "assemble", map[string]any{"stage": "render"})
	}

	var buf bytes.Buffer
	if _, err := a.serialize(&buf); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), missing, nil
}

var (
	defaultEngine     *Engine
	defaultEngineErr  error
	defaultEngineOnce sync.Once
)

// Generate builds a presentation with an engine configured from the global
// configuration.
func Generate(ctx context.Context, units []ContentUnit, opts Options) (*Result, error) {
	defaultEngineOnce.Do(func() {
		defaultEngine, defaultEngineErr = New(context.Background(), nil)
	})
	if defaultEngineErr != nil {
		return nil, fmt.Errorf("default engine: %w", defaultEngineErr)
	}
	return defaultEngine.Generate(ctx, units, opts)
}
