package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/cache"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/extractor"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
)

// DocumentCache is the subset of cache.DocumentCache the pipeline uses.
type DocumentCache interface {
	Get(ctx context.Context, sourceHash string) (*specs.Document, error)
	Put(ctx context.Context, sourceHash string, doc *specs.Document) error
}

const defaultConcurrency = 4

// Pipeline extracts and builds documents for many sources concurrently.
type Pipeline struct {
	extractor   extractor.Extractor
	builder     *Builder
	locator     *Locator
	cache       DocumentCache
	metrics     *observability.Metrics
	logger      *observability.Logger
	concurrency int
	onProgress  func(done, total int)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLocator resolves bare model numbers to files.
func WithLocator(l *Locator) Option {
	return func(p *Pipeline) { p.locator = l }
}

// WithCache reuses documents built from identical source bytes.
func WithCache(c DocumentCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithMetrics records build outcomes and durations in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithConcurrency caps the number of extractions running at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithProgress is called after each source finishes, from worker goroutines.
func WithProgress(fn func(done, total int)) Option {
	return func(p *Pipeline) { p.onProgress = fn }
}

// NewPipeline creates a Pipeline that extracts with ex and builds with builder.
func NewPipeline(ex extractor.Extractor, builder *Builder, logger *observability.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = observability.NopLogger()
	}
	p := &Pipeline{
		extractor:   ex,
		builder:     builder,
		logger:      logger,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Failure records a source that could not be turned into a document.
type Failure struct {
	Ref string
	Err error
}

// Result holds the documents built by Run, keyed by model number.
type Result struct {
	Documents map[string]*specs.Document
	// SourceHashes holds the content hash of each document's source, when
	// the pipeline read it for the cache.
	SourceHashes map[string]string
	// Order lists the document keys in input order.
	Order  []string
	Failed []Failure
}

// FailedRefs lists the references that failed, in input order.
func (r *Result) FailedRefs() []string {
	out := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		out[i] = f.Ref
	}
	return out
}

// Run builds every reference. Per-source failures are collected in the
// result rather than aborting the run; only context cancellation fails it.
func (p *Pipeline) Run(ctx context.Context, refs []string) (*Result, error) {
	type outcome struct {
		doc  *specs.Document
		hash string
		err  error
	}
	outcomes := make([]outcome, len(refs))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			doc, hash, err := p.timedBuild(gctx, ref)
			outcomes[i] = outcome{doc: doc, hash: hash, err: err}
			if p.onProgress != nil {
				p.onProgress(int(done.Add(1)), len(refs))
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Documents:    make(map[string]*specs.Document),
		SourceHashes: make(map[string]string),
	}
	for i, o := range outcomes {
		ref := refs[i]
		if o.err != nil {
			p.logger.WithSource(ref).Warn().Err(o.err).Msg("source dropped from run")
			result.Failed = append(result.Failed, Failure{Ref: ref, Err: o.err})
			continue
		}
		key := documentKey(o.doc, ref)
		if _, dup := result.Documents[key]; dup {
			err := domain.ValidationError(fmt.Sprintf("model %q already built from another source", key), nil)
			p.logger.WithSource(ref).Warn().Err(err).Str("model", key).Msg("source dropped from run")
			result.Failed = append(result.Failed, Failure{Ref: ref, Err: err})
			continue
		}
		result.Documents[key] = o.doc
		if o.hash != "" {
			result.SourceHashes[key] = o.hash
		}
		result.Order = append(result.Order, key)
	}
	return result, nil
}

// Build resolves, extracts and builds a single reference.
func (p *Pipeline) Build(ctx context.Context, ref string) (*specs.Document, error) {
	doc, _, err := p.timedBuild(ctx, ref)
	return doc, err
}

func (p *Pipeline) timedBuild(ctx context.Context, ref string) (*specs.Document, string, error) {
	start := time.Now()
	doc, hash, err := p.build(ctx, ref)
	status := "success"
	if err != nil {
		status = "failed"
	}
	p.metrics.DocumentBuilt(status, time.Since(start).Seconds())
	return doc, hash, err
}

func (p *Pipeline) build(ctx context.Context, ref string) (*specs.Document, string, error) {
	path := ref
	if p.locator != nil {
		resolved, err := p.locator.Resolve(ref)
		if err != nil {
			return nil, "", err
		}
		path = resolved
	}

	log := p.logger.WithSource(path)
	var hash string
	if p.cache != nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", domain.IOError("read source "+path, err)
		}
		hash = cache.SourceHash(data)
		doc, err := p.cache.Get(ctx, hash)
		if err == nil {
			log.Debug().Msg("document cache hit")
			return doc, hash, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Msg("document cache read failed")
		}
	}

	modelID := stem(ref)
	req := extractor.Request{Path: path, ModelNumber: ExtractModelNumber(path)}
	if req.ModelNumber == "" {
		req.ModelNumber = modelID
	}
	out, err := p.extractor.Extract(ctx, req)
	if err != nil {
		return nil, "", err
	}
	if out != nil && out.SourceName == "" {
		out.SourceName = filepath.Base(path)
	}

	doc, err := p.builder.Build(modelID, out)
	if err != nil {
		return nil, "", err
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, hash, doc); err != nil {
			log.Warn().Err(err).Str("model", doc.ModelNumber()).Msg("document cache write failed")
		}
	}
	return doc, hash, nil
}

func documentKey(doc *specs.Document, ref string) string {
	if m := doc.ModelNumber(); m != "" {
		return m
	}
	return stem(ref)
}

func stem(ref string) string {
	base := filepath.Base(ref)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
