// Command change-scheme converts the phone tier of TextGrid files from one
// transcription scheme to another.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/changescheme/core/cas"
	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
	"github.com/FocuswithJustin/changescheme/core/events"
	"github.com/FocuswithJustin/changescheme/core/reseg"
	"github.com/FocuswithJustin/changescheme/core/runner"
	"github.com/FocuswithJustin/changescheme/core/scheme"
	"github.com/FocuswithJustin/changescheme/core/sqlite"
	"github.com/FocuswithJustin/changescheme/core/textgrid"
	"github.com/FocuswithJustin/changescheme/internal/archive"
	"github.com/FocuswithJustin/changescheme/internal/logging"
	"github.com/FocuswithJustin/changescheme/internal/report"
	"github.com/FocuswithJustin/changescheme/internal/validation"
)

const version = "0.1.0"

const (
	defaultScheme = "./configs/cantonese-two-seg.csv"
	defaultOut    = "./out"
)

// stdout receives command output. Tests replace it.
var stdout io.Writer = os.Stdout

// Globals are flags shared by every command.
type Globals struct {
	Debug     bool   `short:"d" help:"Log per-word notes as well as warnings"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn or error (overrides --debug)"`
	LogFormat string `name:"log-format" enum:"text,json" default:"text" help:"Log output format"`
}

// setupLogging configures the global logger from the flags.
func (g *Globals) setupLogging() error {
	level := logging.LevelWarn
	if g.Debug {
		level = logging.LevelInfo
	}
	if g.LogLevel != "" {
		l, err := logging.ParseLevel(g.LogLevel)
		if err != nil {
			return err
		}
		level = l
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Convert ConvertCmd `cmd:"" default:"withargs" help:"Convert TextGrid files to a new scheme (default command)"`
	Check   CheckCmd   `cmd:"" help:"Parse and validate TextGrid files"`
	Scheme  SchemeCmd  `cmd:"" help:"Print the rules of a scheme file as YAML"`
	Verify  VerifyCmd  `cmd:"" help:"Check an output directory against its manifest"`
	Report  ReportCmd  `cmd:"" help:"Summarize a run recorded in a report database"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ConvertCmd converts a directory, archive or single file.
type ConvertCmd struct {
	TextGrids string `arg:"" name:"textgrids" help:"Directory of TextGrid files (not searched recursively), .tar.gz/.tar.xz archive, or single file" type:"existingpath"`
	Scheme    string `short:"s" default:"${default_scheme}" env:"CHANGE_SCHEME_SCHEME" help:"Scheme file (.csv or .yaml)" type:"path"`
	Out       string `short:"o" default:"${default_out}" env:"CHANGE_SCHEME_OUT" help:"Output directory" type:"path"`
	Jobs      int    `short:"j" default:"0" env:"CHANGE_SCHEME_JOBS" help:"Files converted at once (0 = number of CPUs)"`
	Ext       string `default:".TextGrid" help:"Extension of the files to convert"`
	Lenient   bool   `help:"Warn instead of failing when a word has no phone boundary"`
	Normalize bool   `help:"Compare words and phones in Unicode NFC"`
	Report    string `help:"Record events in this SQLite database" type:"path"`
	Manifest  bool   `help:"Write manifest.json with SHA-256 and BLAKE3 digests of the outputs"`
	Pack      string `help:"Also pack the output directory into this .tar.gz or .tar.xz" type:"path"`
	DryRun    bool   `name:"dry-run" help:"Convert without writing any output"`
}

// Run executes the convert command.
func (c *ConvertCmd) Run(ctx context.Context, g *Globals) error {
	if err := g.setupLogging(); err != nil {
		return err
	}
	if err := validatePaths(c.TextGrids, c.Scheme, c.Out); err != nil {
		return err
	}
	if c.Pack != "" && !archive.IsSupportedFormat(c.Pack) {
		return fmt.Errorf("unsupported pack format: %s", c.Pack)
	}

	s, err := scheme.Load(c.Scheme, scheme.WithReporter(logging.NewReporter(nil)))
	if err != nil {
		return err
	}
	s = s.WithPauses()
	logging.InfoContext(ctx, "scheme_loaded", "path", c.Scheme, "words", s.Len())

	sources, err := runner.List(c.TextGrids, c.Ext)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	var store *report.Store
	if c.Report != "" {
		store, err = report.Open(c.Report)
		if err != nil {
			return err
		}
		defer store.Close()
		run, err := store.StartRun(c.Scheme)
		if err != nil {
			return err
		}
		runID = run.ID
	}
	ctx = logging.WithRunID(ctx, runID)
	if len(sources) == 0 {
		logging.WarnContext(ctx, "no input files found", "path", c.TextGrids, "ext", c.Ext)
	}

	reporter := events.Reporter(logging.ReporterFromContext(ctx))
	if store != nil {
		reporter = events.Multi(reporter, store.Reporter(runID))
	}
	var manifest *cas.Manifest
	if c.Manifest && !c.DryRun {
		manifest = cas.NewManifest(runID, c.Scheme)
	}

	r, err := runner.New(runner.Config{
		Scheme:    s,
		OutDir:    c.Out,
		Jobs:      c.Jobs,
		Reporter:  reporter,
		Lenient:   c.Lenient,
		Normalize: c.Normalize,
		Manifest:  manifest,
		DryRun:    c.DryRun,
	})
	if err != nil {
		return err
	}
	logging.RunStarted(ctx, c.Scheme, len(sources), r.Jobs(), "out", c.Out)

	sum, runErr := r.Run(ctx, sources)
	if store != nil {
		files := 0
		if sum != nil {
			files = sum.Written
		}
		if err := store.FinishRun(runID, files, runErr); err != nil {
			logging.ErrorContext(ctx, "failed to record run", "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if manifest != nil {
		path := filepath.Join(c.Out, cas.ManifestName)
		if err := manifest.WriteFile(path); err != nil {
			return err
		}
		logging.InfoContext(ctx, "manifest_written", "path", path, "files", len(manifest.Files))
	}
	if c.Pack != "" && !c.DryRun {
		if err := archive.Pack(c.Out, c.Pack, archive.TrimExt(filepath.Base(c.Pack))); err != nil {
			return err
		}
		logging.InfoContext(ctx, "output_packed", "path", c.Pack)
	}

	printSummary(stdout, sum, c.DryRun)
	return nil
}

// validatePaths rejects empty, overlong or control-character paths.
func validatePaths(paths ...string) error {
	for _, p := range paths {
		if err := validation.ValidatePath(p); err != nil {
			return cserrors.Wrapf(err, "invalid path %q", p)
		}
	}
	return nil
}

func printSummary(w io.Writer, sum *runner.Summary, dryRun bool) {
	verb := "converted"
	if dryRun {
		verb = "checked"
	}
	t := sum.Totals
	fmt.Fprintf(w, "%s %d file(s): %d word(s), %d converted, %d unknown, %d mismatched, %d already converted",
		verb, len(sum.Files), t.Words, t.Converted, t.Unknown, t.Mismatched, t.AlreadyConverted)
	if t.Dropped > 0 {
		fmt.Fprintf(w, ", %d left unaligned", t.Dropped)
	}
	fmt.Fprintln(w)
}

// CheckCmd parses files and reports problems without writing anything.
type CheckCmd struct {
	Files     []string `arg:"" help:"TextGrid files to check"`
	Scheme    string   `short:"s" help:"Also dry-run the conversion with this scheme" type:"path"`
	Lenient   bool     `help:"Warn instead of failing when a word has no phone boundary"`
	Normalize bool     `help:"Compare words and phones in Unicode NFC"`
}

// Run executes the check command.
func (c *CheckCmd) Run(g *Globals) error {
	if err := g.setupLogging(); err != nil {
		return err
	}

	var engine *reseg.Engine
	if c.Scheme != "" {
		s, err := scheme.Load(c.Scheme)
		if err != nil {
			return err
		}
		engine = reseg.New(s.WithPauses(), reseg.WithLenient(c.Lenient), reseg.WithNormalize(c.Normalize))
	}

	var col events.Collector
	failed, warnings, unknown := 0, 0, 0
	for _, path := range c.Files {
		col.Reset()
		line, err := checkFile(path, engine, &col)
		if err != nil {
			failed++
			status := "ERROR"
			if cserrors.IsFatal(err) {
				status = "FAIL"
			}
			fmt.Fprintf(stdout, "%s %s: %v\n", status, path, err)
			continue
		}
		fmt.Fprintf(stdout, "ok   %s: %s\n", path, line)
		for _, e := range col.Events() {
			fmt.Fprintf(stdout, "     %s\n", e)
		}
		warnings += col.CountSeverity(events.SeverityWarn)
		unknown += col.Count(events.KindUnknownWord)
	}
	fmt.Fprintf(stdout, "%d file(s) checked, %d failed, %d warning(s), %d unknown word(s)\n",
		len(c.Files), failed, warnings, unknown)
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(c.Files))
	}
	return nil
}

func checkFile(path string, engine *reseg.Engine, rep events.Reporter) (string, error) {
	doc, err := textgrid.ReadFile(path, textgrid.WithReporter(rep))
	if err != nil {
		return "", err
	}
	if err := doc.Validate(); err != nil {
		return "", err
	}
	back, err := textgrid.Parse(textgrid.Serialize(doc))
	if err != nil {
		return "", cserrors.Wrap(err, "re-reading serialized output")
	}
	if !reflect.DeepEqual(back, doc) {
		return "", errors.New("document does not survive a write and re-read")
	}

	intervals := 0
	for i := range doc.Items {
		intervals += doc.Items[i].Size()
	}
	line := fmt.Sprintf("%d tier(s), %d interval(s)", doc.Size(), intervals)
	if engine == nil {
		return line, nil
	}
	out, res, err := engine.With(reseg.WithReporter(rep), reseg.WithPath(path)).Convert(doc)
	if err != nil {
		return "", err
	}
	inMin, inMax := doc.Items[reseg.PhoneTier].Span()
	outMin, outMax := out.Items[reseg.PhoneTier].Span()
	if inMin != outMin || inMax != outMax {
		return "", fmt.Errorf("conversion moved the phone tier span from [%v, %v] to [%v, %v]", inMin, inMax, outMin, outMax)
	}
	return fmt.Sprintf("%s; %d of %d word(s) convertible", line, res.Converted, res.Words), nil
}

// SchemeCmd prints a scheme as YAML.
type SchemeCmd struct {
	Path  string   `arg:"" help:"Scheme file (.csv or .yaml)" type:"existingfile"`
	Words []string `arg:"" optional:"" help:"Only print these words"`
}

// Run executes the scheme command.
func (c *SchemeCmd) Run(g *Globals) error {
	if err := g.setupLogging(); err != nil {
		return err
	}
	s, err := scheme.Load(c.Path, scheme.WithReporter(logging.NewReporter(nil)))
	if err != nil {
		return err
	}
	if len(c.Words) > 0 {
		sub := make(scheme.Scheme, len(c.Words))
		for _, w := range c.Words {
			rules, ok := s.Lookup(w)
			if !ok {
				return fmt.Errorf("word %q is not in %s", w, c.Path)
			}
			sub[w] = rules
		}
		s = sub
	}
	return scheme.WriteYAML(stdout, s)
}

// VerifyCmd re-hashes the files listed in an output manifest.
type VerifyCmd struct {
	Dir string `arg:"" help:"Output directory containing manifest.json" type:"existingdir"`
}

// Run executes the verify command.
func (c *VerifyCmd) Run(g *Globals) error {
	if err := g.setupLogging(); err != nil {
		return err
	}
	m, err := cas.ReadManifest(filepath.Join(c.Dir, cas.ManifestName))
	if err != nil {
		return err
	}
	bad, err := m.Verify(c.Dir)
	if err != nil {
		return err
	}
	for _, b := range bad {
		fmt.Fprintf(stdout, "MISMATCH %s: %s\n", b.Name, b.Reason)
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d of %d file(s) do not match the manifest", len(bad), len(m.Files))
	}
	fmt.Fprintf(stdout, "%d file(s) verified (run %s)\n", len(m.Files), m.RunID)
	return nil
}

// ReportCmd prints event counts for one run of a report database.
type ReportCmd struct {
	DB    string `arg:"" name:"db" help:"Report database" type:"existingfile"`
	RunID string `name:"run" help:"Run ID (default: latest run)"`
	Kind  string `help:"Also list the events of this kind"`
}

// Run executes the report command.
func (c *ReportCmd) Run(g *Globals) error {
	if err := g.setupLogging(); err != nil {
		return err
	}
	store, err := report.OpenReadOnly(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	var run *report.Run
	if c.RunID != "" {
		run, err = store.GetRun(c.RunID)
	} else {
		run, err = store.LatestRun()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "run %s  %s  scheme=%s  files=%d  started=%s\n",
		run.ID, run.Status, run.Scheme, run.Files, run.StartedAt)
	if run.Error != "" {
		fmt.Fprintf(stdout, "error: %s\n", run.Error)
	}
	counts, err := store.Counts(run.ID)
	if err != nil {
		return err
	}
	for _, n := range counts {
		fmt.Fprintf(stdout, "%-5s %-18s %d\n", n.Severity, n.Kind, n.N)
	}

	if c.Kind != "" {
		evs, err := store.Events(run.ID, events.Kind(c.Kind))
		if err != nil {
			return err
		}
		for _, e := range evs {
			fmt.Fprintln(stdout, e)
		}
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

// Run executes the version command.
func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "change-scheme version %s (sqlite: %s, %s)\n", version, info.DriverType, info.Package)
	return nil
}

func kongOptions() []kong.Option {
	return []kong.Option{
		kong.Name("change-scheme"),
		kong.Description("Change the transcription scheme of TextGrid phone tiers."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"default_scheme": defaultScheme,
			"default_out":    defaultOut,
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	opts := append(kongOptions(), kong.BindTo(ctx, (*context.Context)(nil)))
	kctx := kong.Parse(&cli, opts...)
	err := kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}
