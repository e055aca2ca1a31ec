// Package build orchestrates one compile pass: scan, classify, resolve,
// plan, staleness-gate, render, delegate book subtrees, and persist the
// manifest at the barrier.
package build

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/book"
	"git.home.luguber.info/inful/sitebuilder/internal/classify"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/livereload"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
	"git.home.luguber.info/inful/sitebuilder/internal/plan"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// DebugTag is the output tag that renders draft documents.
const DebugTag = "debug"

// Options configure one pipeline instance.
type Options struct {
	Tag   string
	Force bool
	Live  bool

	// Hub receives lifecycle events when live mode is active. Optional.
	Hub *livereload.Hub

	// Workers bounds the render pool; zero means GOMAXPROCS.
	Workers int
}

// Result is the end-of-pass summary.
type Result struct {
	BuildID   string
	Tag       string
	Documents int
	Rendered  int
	Noop      int
	Warned    int
	Failed    int
	Errors    []*sberrors.SiteError
	Duration  time.Duration
}

// Ok reports whether the pass completed without document failures.
func (r *Result) Ok() bool { return r.Failed == 0 }

// Pipeline runs build passes for one site. A pipeline may be reused across
// passes (the watcher does); per-pass state lives in the run.
type Pipeline struct {
	cfg  *config.Config
	opts Options
}

func New(cfg *config.Config, opts Options) *Pipeline {
	if opts.Tag == "" {
		opts.Tag = cfg.Build.Tag
	}
	if opts.Workers == 0 {
		opts.Workers = cfg.Build.Workers
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{cfg: cfg, opts: opts}
}

// Run executes one pass to completion. Fatal errors abort with no result;
// per-document failures are collected into the result instead.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	result := &Result{BuildID: uuid.NewString()[:8], Tag: p.opts.Tag}
	log := slog.With(logfields.BuildID(result.BuildID), logfields.Tag(result.Tag))

	if p.opts.Hub != nil {
		p.opts.Hub.Broadcast(livereload.Start())
	}

	destRoot := p.cfg.DestRoot(p.opts.Tag)
	if err := os.MkdirAll(destRoot, 0o750); err != nil {
		return nil, sberrors.DestUnwritable(destRoot, err)
	}

	man, err := manifest.Load(destRoot, p.opts.Tag)
	if err != nil {
		return nil, err
	}
	man.SetForce(p.opts.Force)

	rules, err := classify.LoadIgnoreRules(p.cfg.SourceRoot, p.cfg.Ignore)
	if err != nil {
		return nil, sberrors.SourceUnreadable(p.cfg.SourceRoot, err)
	}
	scan, err := classify.NewScanner(p.cfg.SourceRoot, destRoot, rules).Scan()
	if err != nil {
		return nil, err
	}
	for _, warn := range scan.Warnings {
		result.Warned++
		log.Warn(warn.Message, logfields.Error(warn))
	}

	var docRels []string
	for _, e := range scan.Entries {
		if e.Kind == classify.KindDocument {
			docRels = append(docRels, e.RelPath)
		}
	}
	result.Documents = len(docRels)
	policy := plan.PolicyPreserve
	if p.cfg.Build.CleanURLs {
		policy = plan.PolicyClean
	}
	planner := plan.NewPlanner(policy, docRels)

	cache := site.NewDirCache()
	dataResolver := site.NewDataResolver(p.cfg, cache)
	layoutResolver := site.NewLayoutResolver(p.cfg, cache)

	renderer, err := render.New(p.cfg, render.Options{
		Live:    p.opts.Live,
		Snippet: livereload.ScriptTag,
		Tag:     p.opts.Tag,
	})
	if err != nil {
		return nil, err
	}
	if p.opts.Live {
		if err := livereload.WriteScript(destRoot); err != nil {
			return nil, sberrors.DestUnwritable(destRoot, err)
		}
	}

	run := &pass{
		Pipeline: p,
		log:      log,
		destRoot: destRoot,
		man:      man,
		planner:  planner,
		data:     dataResolver,
		layouts:  layoutResolver,
		renderer: renderer,
		result:   result,
	}
	run.processEntries(scan.Entries)
	run.processBooks(ctx, scan.Books, cache)

	// Barrier: the manifest is written after all renders, success or partial
	// failure, so interrupted builds still advance for completed files.
	if err := man.Save(); err != nil {
		result.Failed++
		run.collect(sberrors.AsSiteError(err))
	}

	result.Duration = time.Since(started)
	p.notify(result)
	log.Info("build pass complete",
		slog.Int("rendered", result.Rendered),
		slog.Int("noop", result.Noop),
		slog.Int("warned", result.Warned),
		slog.Int("failed", result.Failed),
		logfields.DurationMS(float64(result.Duration.Milliseconds())),
	)
	return result, nil
}

func (p *Pipeline) notify(result *Result) {
	if p.opts.Hub == nil {
		return
	}
	if result.Ok() {
		p.opts.Hub.Broadcast(livereload.Notify("Build complete", false))
		p.opts.Hub.Broadcast(livereload.Reload(""))
		return
	}
	p.opts.Hub.Broadcast(livereload.Notify("Build finished with errors", true))
	if result.Rendered > 0 {
		// Partial output was still produced; let clients pick it up.
		p.opts.Hub.Broadcast(livereload.Reload(""))
	}
}

// pass carries the per-run state shared by the workers.
type pass struct {
	*Pipeline
	log      *slog.Logger
	destRoot string
	man      *manifest.Manifest
	planner  *plan.Planner
	data     *site.DataResolver
	layouts  *site.LayoutResolver
	renderer *render.Renderer

	mu     sync.Mutex
	result *Result
}

func (r *pass) collect(err *sberrors.SiteError) {
	r.mu.Lock()
	r.result.Errors = append(r.result.Errors, err)
	r.mu.Unlock()
}

func (r *pass) bump(field *int) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}

// processEntries renders documents and copies assets with a bounded worker
// pool. Documents only depend on ancestors, never siblings, so they are
// safe to process concurrently over the shared directory cache.
func (r *pass) processEntries(entries []classify.SourceEntry) {
	jobs := make(chan classify.SourceEntry)
	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				r.processEntry(entry)
			}
		}()
	}
	for _, entry := range entries {
		switch entry.Kind {
		case classify.KindDocument, classify.KindAsset:
			jobs <- entry
		}
	}
	close(jobs)
	wg.Wait()
}

func (r *pass) processEntry(entry classify.SourceEntry) {
	switch entry.Kind {
	case classify.KindDocument:
		r.processDocument(entry)
	case classify.KindAsset:
		r.processAsset(entry)
	}
}

func (r *pass) processDocument(entry classify.SourceEntry) {
	ctx, err := r.data.Resolve(entry)
	if err != nil {
		r.fail(entry, err)
		return
	}
	for _, warn := range ctx.Warnings {
		r.bump(&r.result.Warned)
		r.log.Warn(warn.Message, logfields.Source(entry.RelPath), logfields.Error(warn))
	}

	if ctx.Draft && r.opts.Tag != DebugTag {
		r.log.Debug("skipping draft", logfields.Source(entry.RelPath))
		r.bump(&r.result.Noop)
		return
	}

	ctx.DestRel = r.planner.Document(entry.RelPath)
	if !r.man.IsStale(entry.RelPath, entry.ModTime) {
		r.bump(&r.result.Noop)
		return
	}

	chain, err := r.layouts.Resolve(ctx)
	if err != nil {
		r.fail(entry, err)
		return
	}
	out, err := r.renderer.Render(ctx, chain)
	if err != nil {
		r.fail(entry, err)
		return
	}
	if err := writeOutput(r.destRoot, ctx.DestRel, out); err != nil {
		r.fail(entry, err)
		return
	}

	// Recording only on success is the principal correctness invariant of
	// the incremental model: failed documents stay stale and are retried.
	r.man.Record(entry.RelPath, ctx.DestRel, entry.ModTime)
	r.bump(&r.result.Rendered)
	r.log.Debug("rendered", logfields.Source(entry.RelPath), logfields.Dest(ctx.DestRel))
}

func (r *pass) processAsset(entry classify.SourceEntry) {
	destRel := r.planner.Asset(entry.RelPath)
	if !r.man.IsStale(entry.RelPath, entry.ModTime) {
		r.bump(&r.result.Noop)
		return
	}
	raw, err := os.ReadFile(entry.AbsPath)
	if err != nil {
		r.fail(entry, sberrors.Wrap(err, sberrors.CategoryFileSystem, sberrors.SeverityError, "read asset"))
		return
	}
	if err := writeOutput(r.destRoot, destRel, raw); err != nil {
		r.fail(entry, err)
		return
	}
	r.man.Record(entry.RelPath, destRel, entry.ModTime)
	r.bump(&r.result.Rendered)
}

// processBooks delegates stale book subtrees sequentially; the external
// compiler is assumed to own its own parallelism.
func (r *pass) processBooks(ctx context.Context, books []classify.BookProject, cache *site.DirCache) {
	if len(books) == 0 {
		return
	}
	delegate := book.NewDelegate(r.cfg)
	for _, project := range books {
		if fragment, err := cache.Fragment(project.RootAbs); err == nil && fragment != nil {
			if draft, ok := fragment["draft"].(bool); ok && draft && r.opts.Tag != DebugTag {
				r.log.Debug("skipping draft book", logfields.Source(project.RootRel))
				r.bump(&r.result.Noop)
				continue
			}
		}
		if !r.man.IsStale(project.RootRel, project.ModTime) {
			r.bump(&r.result.Noop)
			continue
		}
		if err := delegate.Build(ctx, project, r.destRoot); err != nil {
			r.bump(&r.result.Failed)
			se := sberrors.AsSiteError(err)
			r.collect(se)
			r.log.Error(se.Message, logfields.Source(project.RootRel), logfields.Error(se))
			continue
		}
		r.man.Record(project.RootRel, project.RootRel, project.ModTime)
		r.bump(&r.result.Rendered)
	}
}

func (r *pass) fail(entry classify.SourceEntry, err error) {
	se := sberrors.AsSiteError(err)
	r.bump(&r.result.Failed)
	r.collect(se)
	r.log.Error(se.Message, logfields.Source(entry.RelPath), logfields.Error(se))
}

func writeOutput(destRoot, destRel string, data []byte) error {
	target := filepath.Join(destRoot, filepath.FromSlash(destRel))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return sberrors.Wrap(err, sberrors.CategoryFileSystem, sberrors.SeverityError, "create output directory")
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return sberrors.Wrap(err, sberrors.CategoryFileSystem, sberrors.SeverityError, "write output")
	}
	return nil
}
