package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/FocuswithJustin/changescheme/core/cas"
	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
	"github.com/FocuswithJustin/changescheme/core/events"
	"github.com/FocuswithJustin/changescheme/core/reseg"
	"github.com/FocuswithJustin/changescheme/core/scheme"
	"github.com/FocuswithJustin/changescheme/core/textgrid"
	"github.com/FocuswithJustin/changescheme/internal/logging"
	"github.com/FocuswithJustin/changescheme/internal/validation"
)

// ErrDuplicateName is returned when two sources would write the same
// output file.
var ErrDuplicateName = errors.New("duplicate output name")

// Config holds the settings of a Runner.
type Config struct {
	// Scheme is shared read only by every worker. Pause markers are the
	// caller's business; see scheme.Scheme.WithPauses.
	Scheme scheme.Scheme

	// OutDir receives one output file per source, named after it. It is
	// created if missing.
	OutDir string

	// Jobs bounds the number of files converted at once. Zero or less
	// means runtime.NumCPU().
	Jobs int

	// Reporter receives every event, tagged with the source file name.
	// It must be safe for concurrent use.
	Reporter events.Reporter

	Lenient   bool
	Normalize bool

	// Manifest, if set, records the digest of every written file.
	Manifest *cas.Manifest

	// DryRun converts without writing anything.
	DryRun bool
}

// FileResult is the outcome of one source.
type FileResult struct {
	Name     string
	Path     string
	Output   string // empty on dry runs and failures
	Result   reseg.Result
	Duration time.Duration
	Err      error
	Skipped  bool // not attempted because the run was cancelled
}

// Summary is the outcome of a run, with Files sorted by name.
type Summary struct {
	Files   []FileResult
	Totals  reseg.Result
	Written int
	Failed  int
	Skipped int
}

func (s *Summary) add(r FileResult) {
	s.Files = append(s.Files, r)
	switch {
	case r.Skipped:
		s.Skipped++
	case r.Err != nil:
		s.Failed++
	default:
		s.Totals.Add(r.Result)
		if r.Output != "" {
			s.Written++
		}
	}
}

// Runner converts sources with one scheme.
type Runner struct {
	cfg    Config
	engine *reseg.Engine
}

// New validates cfg and returns a Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.OutDir == "" && !cfg.DryRun {
		return nil, errors.New("runner: output directory is required")
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.NumCPU()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = events.Discard
	}
	engine := reseg.New(cfg.Scheme,
		reseg.WithLenient(cfg.Lenient),
		reseg.WithNormalize(cfg.Normalize),
	)
	return &Runner{cfg: cfg, engine: engine}, nil
}

// Jobs returns the effective worker count.
func (r *Runner) Jobs() int {
	return r.cfg.Jobs
}

// Run converts every source. The first file to fail cancels the files not
// yet started and its error is returned together with the partial summary.
// Per-word problems are events and never fail a file.
func (r *Runner) Run(ctx context.Context, sources []Source) (*Summary, error) {
	if err := checkNames(sources); err != nil {
		return nil, err
	}
	if !r.cfg.DryRun {
		if err := os.MkdirAll(r.cfg.OutDir, 0755); err != nil {
			return nil, cserrors.NewIO("create", r.cfg.OutDir, err)
		}
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	pool := NewWorkerPool[Source, FileResult](r.cfg.Jobs, len(sources))
	logging.DebugContext(ctx, "pool_started", "workers", pool.Size(), "files", len(sources))
	pool.Start(ctx, func(ctx context.Context, src Source) FileResult {
		res := r.convert(ctx, src)
		if res.Err != nil {
			cancel(res.Err)
		}
		return res
	})
	for _, src := range sources {
		pool.Submit(src)
	}
	pool.Close()

	summary := &Summary{Files: make([]FileResult, 0, len(sources))}
	for res := range pool.Results() {
		summary.add(res)
	}
	sort.Slice(summary.Files, func(i, j int) bool {
		return summary.Files[i].Name < summary.Files[j].Name
	})

	if err := context.Cause(ctx); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) convert(ctx context.Context, src Source) FileResult {
	res := FileResult{Name: src.Name, Path: src.Path}
	if ctx.Err() != nil {
		res.Skipped = true
		logging.DebugContext(ctx, "file_skipped", "file", src.Name, "cause", context.Cause(ctx))
		return res
	}
	start := time.Now()

	res.Err = r.convertInto(&res, src)
	res.Duration = time.Since(start)
	if res.Err != nil {
		res.Output = ""
		logging.FileFailed(ctx, src.Name, res.Err, "bad_input", cserrors.IsFatal(res.Err))
		return res
	}
	logging.FileConverted(ctx, src.Name, res.Result.Words, res.Result.Converted, res.Duration)
	return res
}

func (r *Runner) convertInto(res *FileResult, src Source) error {
	rep := events.WithFile(r.cfg.Reporter, src.Name)

	data, err := src.read()
	if err != nil {
		return err
	}
	doc, err := textgrid.Parse(data, textgrid.WithPath(src.Path), textgrid.WithReporter(rep))
	if err != nil {
		return err
	}
	engine := r.engine.With(reseg.WithReporter(rep), reseg.WithPath(src.Path))
	out, counts, err := engine.Convert(doc)
	res.Result = counts
	if err != nil {
		return err
	}
	if r.cfg.DryRun {
		return nil
	}

	res.Output = filepath.Join(r.cfg.OutDir, src.Name)
	data = textgrid.Serialize(out)
	if err := textgrid.WriteFile(res.Output, data); err != nil {
		return err
	}
	if r.cfg.Manifest != nil {
		r.cfg.Manifest.Add(src.Name, data)
	}
	return nil
}

func checkNames(sources []Source) error {
	seen := make(map[string]string, len(sources))
	for _, src := range sources {
		if err := validation.ValidateFilename(src.Name); err != nil {
			return cserrors.Wrapf(err, "output name for %s", src.Path)
		}
		if prev, ok := seen[src.Name]; ok {
			return fmt.Errorf("%w: %s and %s both write %s", ErrDuplicateName, prev, src.Path, src.Name)
		}
		seen[src.Name] = src.Path
	}
	return nil
}
