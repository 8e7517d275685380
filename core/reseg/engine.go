package reseg

import (
	"fmt"
	"slices"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
	"github.com/FocuswithJustin/changescheme/core/events"
	"github.com/FocuswithJustin/changescheme/core/scheme"
	"github.com/FocuswithJustin/changescheme/core/textgrid"
)

// Options controls an Engine.
type Options struct {
	// Reporter receives per-word events. Nil discards them.
	Reporter events.Reporter

	// Lenient turns an alignment failure into a warning: words after the
	// failure are left unconverted instead of failing the document.
	Lenient bool

	// Normalize compares words and phones in Unicode NFC.
	Normalize bool

	// Path is attached to errors.
	Path string
}

// Option sets a field of Options.
type Option func(*Options)

// WithReporter sets the event reporter.
func WithReporter(r events.Reporter) Option {
	return func(o *Options) { o.Reporter = r }
}

// WithLenient enables lenient alignment.
func WithLenient(lenient bool) Option {
	return func(o *Options) { o.Lenient = lenient }
}

// WithNormalize enables NFC comparison.
func WithNormalize(normalize bool) Option {
	return func(o *Options) { o.Normalize = normalize }
}

// WithPath sets the path attached to errors.
func WithPath(path string) Option {
	return func(o *Options) { o.Path = path }
}

// Result counts what happened to the words of one document.
type Result struct {
	Words            int `json:"words"`
	Converted        int `json:"converted"`
	Unknown          int `json:"unknown"`
	Mismatched       int `json:"mismatched"`
	AlreadyConverted int `json:"already_converted"`
	Dropped          int `json:"dropped"`
}

// Add accumulates other into r.
func (r *Result) Add(other Result) {
	r.Words += other.Words
	r.Converted += other.Converted
	r.Unknown += other.Unknown
	r.Mismatched += other.Mismatched
	r.AlreadyConverted += other.AlreadyConverted
	r.Dropped += other.Dropped
}

// Engine converts documents with one scheme. The scheme is read only, so
// an Engine may be shared by goroutines as long as its Reporter is safe for
// concurrent use.
type Engine struct {
	scheme scheme.Scheme
	opts   Options
}

// New returns an Engine for s. The caller is responsible for pause
// markers; see scheme.Scheme.WithPauses.
func New(s scheme.Scheme, opts ...Option) *Engine {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Reporter == nil {
		o.Reporter = events.Discard
	}
	if o.Normalize {
		s = s.Normalized()
	}
	return &Engine{scheme: s, opts: o}
}

// With returns a copy of e with opts applied over its options. The scheme
// is shared unless normalization is newly enabled.
func (e *Engine) With(opts ...Option) *Engine {
	o := e.opts
	for _, opt := range opts {
		opt(&o)
	}
	if o.Reporter == nil {
		o.Reporter = events.Discard
	}
	s := e.scheme
	if o.Normalize && !e.opts.Normalize {
		s = s.Normalized()
	}
	return &Engine{scheme: s, opts: o}
}

// ChangeScheme converts doc with s and returns the new document.
func ChangeScheme(s scheme.Scheme, doc *textgrid.Document, opts ...Option) (*textgrid.Document, error) {
	out, _, err := New(s, opts...).Convert(doc)
	return out, err
}

// Convert returns a new document whose phone tier follows the scheme.
// The word tier and any further tiers are copied unchanged, and doc is not
// modified.
func (e *Engine) Convert(doc *textgrid.Document) (*textgrid.Document, Result, error) {
	var res Result
	if err := requireTiers(doc); err != nil {
		setPath(err, e.opts.Path)
		return nil, res, err
	}

	aligns, err := AlignWordsToPhones(doc)
	if err != nil {
		ae, ok := err.(*cserrors.AlignmentError)
		if !ok || !e.opts.Lenient {
			setPath(err, e.opts.Path)
			return nil, res, err
		}
		res.Dropped = len(doc.Items[WordTier].Intervals) - ae.WordIndex
		e.opts.Reporter.Report(events.Event{
			Severity:  events.SeverityWarn,
			Kind:      events.KindAlignment,
			Word:      ae.Word,
			WordIndex: ae.WordIndex,
			Message:   fmt.Sprintf("no phone boundary at %v; %d word(s) left unconverted", ae.MaxTime, res.Dropped),
		})
	}

	out := doc.Clone()
	words := doc.Items[WordTier].Intervals
	phones := doc.Items[PhoneTier].Intervals

	rebuilt := make([]textgrid.Interval, 0, len(phones))
	consumed := 0
	for _, a := range aligns {
		run := phones[a.Start : a.Start+a.Len()]
		rebuilt = e.convertWord(rebuilt, a.Word, words[a.Word].Text, run, &res)
		consumed = a.End + 1
	}
	// Phones past the last aligned word are kept so no time is lost.
	rebuilt = append(rebuilt, phones[consumed:]...)

	out.Items[PhoneTier].Intervals = rebuilt
	return out, res, nil
}

func (e *Engine) convertWord(dst []textgrid.Interval, index int, word string, run []textgrid.Interval, res *Result) []textgrid.Interval {
	res.Words++
	key := word
	observed := (&textgrid.Tier{Intervals: run}).Labels()
	if e.opts.Normalize {
		key = scheme.Normalize(word)
		for i := range observed {
			observed[i] = scheme.Normalize(observed[i])
		}
	}

	rules, ok := e.scheme.Lookup(key)
	if !ok {
		res.Unknown++
		e.opts.Reporter.Report(events.Event{
			Severity:  events.SeverityWarn,
			Kind:      events.KindUnknownWord,
			Word:      word,
			WordIndex: index,
			Observed:  observed,
			Message:   "skipped: unknown word",
		})
		return append(dst, run...)
	}

	expected := scheme.OldPhones(rules)
	if !slices.Equal(observed, expected) {
		if slices.Equal(observed, scheme.NewPhones(rules)) {
			res.AlreadyConverted++
			e.opts.Reporter.Report(events.Event{
				Severity:  events.SeverityInfo,
				Kind:      events.KindAlreadyConverted,
				Word:      word,
				WordIndex: index,
				Observed:  observed,
				Message:   "already converted",
			})
			return append(dst, run...)
		}
		res.Mismatched++
		e.opts.Reporter.Report(events.Event{
			Severity:  events.SeverityWarn,
			Kind:      events.KindMismatch,
			Word:      word,
			WordIndex: index,
			Observed:  observed,
			Expected:  expected,
			Message:   "scheme mismatch",
		})
		return append(dst, run...)
	}

	res.Converted++
	k := 0
	for _, r := range rules {
		n := len(r.Old)
		if n == 0 {
			continue
		}
		dst = append(dst, textgrid.Interval{
			MinTime: run[k].MinTime,
			MaxTime: run[k+n-1].MaxTime,
			Text:    r.New,
		})
		k += n
	}
	return dst
}

func setPath(err error, path string) {
	if path == "" {
		return
	}
	switch e := err.(type) {
	case *cserrors.FormatError:
		e.Path = path
	case *cserrors.AlignmentError:
		e.Path = path
	}
}
