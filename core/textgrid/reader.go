package textgrid

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
	"github.com/FocuswithJustin/changescheme/core/events"
)

// Option configures Parse, Read and ReadFile.
type Option func(*options)

type options struct {
	path     string
	reporter events.Reporter
}

// WithPath sets the file path used in errors and events.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithReporter sets where non-fatal header problems are reported.
func WithReporter(r events.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

func buildOptions(opts []Option) options {
	o := options{reporter: events.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	if o.reporter == nil {
		o.reporter = events.Discard
	}
	return o
}

// ReadFile reads and parses the TextGrid at path.
func ReadFile(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cserrors.NewIO("read", path, err)
	}
	return Parse(data, append([]Option{WithPath(path)}, opts...)...)
}

// Read parses a TextGrid from r.
func Read(r io.Reader, opts ...Option) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, cserrors.NewIO("read", buildOptions(opts).path, err)
	}
	return Parse(data, opts...)
}

// Parse parses a long-format TextGrid in UTF-8, or in UTF-16 when the data
// starts with a UTF-16 byte order mark.
//
// A header that does not declare "ooTextFile"/"TextGrid" is reported as a
// warning and parsing continues. Malformed numbers or quoted text, tier
// classes other than IntervalTier and missing lines are fatal and returned
// as *errors.FormatError.
func Parse(data []byte, opts ...Option) (*Document, error) {
	o := buildOptions(opts)
	text, err := decodeText(data)
	if err != nil {
		return nil, &cserrors.FormatError{Path: o.path, Message: "invalid UTF-16 text", Err: err}
	}
	p := newLineReader(text, o)
	return p.document()
}

// lineReader walks the fixed line grammar. Structural lines (blank lines,
// "item []:", "intervals [n]:") are skipped by position, not by content.
type lineReader struct {
	lines []string
	pos   int
	opts  options
}

func newLineReader(data []byte, opts options) *lineReader {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	lines := strings.Split(string(data), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return &lineReader{lines: lines, opts: opts}
}

func (p *lineReader) document() (*Document, error) {
	typeLine, err := p.next()
	if err != nil {
		return nil, err
	}
	p.checkHeader(typeLine, "File type", FileType)

	classLine, err := p.next()
	if err != nil {
		return nil, err
	}
	p.checkHeader(classLine, "Object class", ObjectClass)

	if err := p.skip(); err != nil {
		return nil, err
	}

	doc := &Document{}
	if doc.MinTime, err = p.number("xmin"); err != nil {
		return nil, err
	}
	if doc.MaxTime, err = p.number("xmax"); err != nil {
		return nil, err
	}

	tiersLine, err := p.next()
	if err != nil {
		return nil, err
	}
	if strings.Contains(tiersLine, "<absent>") {
		return doc, nil
	}

	size, err := p.count("size")
	if err != nil {
		return nil, err
	}
	if err := p.skip(); err != nil {
		return nil, err
	}

	doc.Items = make([]Tier, 0, p.capHint(size))
	for i := 0; i < size; i++ {
		tier, err := p.tier()
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, *tier)
	}
	return doc, nil
}

func (p *lineReader) tier() (*Tier, error) {
	if err := p.skip(); err != nil {
		return nil, err
	}

	line := p.pos + 1
	class, err := p.text("class")
	if err != nil {
		return nil, err
	}
	if class != IntervalTierClass {
		fe := p.errorf(line, p.lines[line-1], "unsupported tier class %q", class)
		fe.Err = cserrors.NewUnsupported("tier class", class)
		return nil, fe
	}

	t := &Tier{}
	if t.Name, err = p.text("name"); err != nil {
		return nil, err
	}
	if t.MinTime, err = p.number("xmin"); err != nil {
		return nil, err
	}
	if t.MaxTime, err = p.number("xmax"); err != nil {
		return nil, err
	}
	n, err := p.count("intervals size")
	if err != nil {
		return nil, err
	}

	t.Intervals = make([]Interval, 0, p.capHint(n))
	for j := 0; j < n; j++ {
		if err := p.skip(); err != nil {
			return nil, err
		}
		var iv Interval
		if iv.MinTime, err = p.number("xmin"); err != nil {
			return nil, err
		}
		if iv.MaxTime, err = p.number("xmax"); err != nil {
			return nil, err
		}
		if iv.Text, err = p.text("text"); err != nil {
			return nil, err
		}
		t.Intervals = append(t.Intervals, iv)
	}
	return t, nil
}

func (p *lineReader) checkHeader(line, key, want string) {
	f, err := parseField(line)
	if err == nil && !f.IsNumber && f.Key == key && f.Text == want {
		return
	}
	p.opts.reporter.Report(events.Event{
		Severity: events.SeverityWarn,
		Kind:     events.KindHeader,
		File:     p.opts.path,
		Expected: []string{want},
		Message:  fmt.Sprintf("unknown %s: %s", strings.ToLower(key), strings.TrimSpace(line)),
	})
}

func (p *lineReader) next() (string, error) {
	if p.pos >= len(p.lines) {
		return "", p.errorf(p.pos+1, "", "unexpected end of file")
	}
	line := p.lines[p.pos]
	p.pos++
	return line, nil
}

func (p *lineReader) skip() error {
	_, err := p.next()
	return err
}

func (p *lineReader) field(key string) (*field, int, error) {
	raw, err := p.next()
	if err != nil {
		return nil, 0, err
	}
	f, err := parseField(raw)
	if err != nil {
		fe := p.errorf(p.pos, raw, "malformed %s field", key)
		fe.Err = err
		return nil, p.pos, fe
	}
	if f.Key != key {
		return nil, p.pos, p.errorf(p.pos, raw, "expected %s field, found %s", key, f.Key)
	}
	return f, p.pos, nil
}

func (p *lineReader) number(key string) (float64, error) {
	f, line, err := p.field(key)
	if err != nil {
		return 0, err
	}
	if !f.IsNumber {
		return 0, p.errorf(line, p.lines[line-1], "expected a number for %s", key)
	}
	return f.Number, nil
}

func (p *lineReader) text(key string) (string, error) {
	f, line, err := p.field(key)
	if err != nil {
		return "", err
	}
	if f.IsNumber {
		return "", p.errorf(line, p.lines[line-1], "expected quoted text for %s", key)
	}
	return f.Text, nil
}

func (p *lineReader) count(key string) (int, error) {
	n, err := p.number(key)
	if err != nil {
		return 0, err
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, p.errorf(p.pos, p.lines[p.pos-1], "invalid %s", key)
	}
	return int(n), nil
}

// capHint bounds a declared count by the lines left so a bogus size cannot
// force a huge allocation.
func (p *lineReader) capHint(n int) int {
	if rest := len(p.lines) - p.pos; n > rest {
		return rest
	}
	return n
}

func (p *lineReader) errorf(line int, text, format string, args ...any) *cserrors.FormatError {
	e := cserrors.NewFormat(line, strings.TrimSpace(text), fmt.Sprintf(format, args...))
	e.Path = p.opts.path
	return e
}
