package scheme

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
	"github.com/FocuswithJustin/changescheme/core/events"
)

// Option configures the scheme readers.
type Option func(*loadOptions)

type loadOptions struct {
	path     string
	reporter events.Reporter
}

// WithPath sets the file path used in errors and events.
func WithPath(path string) Option {
	return func(o *loadOptions) { o.path = path }
}

// WithReporter sets where duplicate word definitions are reported.
func WithReporter(r events.Reporter) Option {
	return func(o *loadOptions) { o.reporter = r }
}

func buildOptions(opts []Option) loadOptions {
	o := loadOptions{reporter: events.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	if o.reporter == nil {
		o.reporter = events.Discard
	}
	return o
}

// Load reads the scheme file at path. The format is chosen by extension:
// .csv and .txt are read with ReadCSV, .yaml and .yml with ReadYAML.
func Load(path string, opts ...Option) (Scheme, error) {
	var read func(io.Reader, ...Option) (Scheme, error)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		read = ReadCSV
	case ".yaml", ".yml":
		read = ReadYAML
	default:
		return nil, cserrors.NewUnsupported("scheme file extension", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, cserrors.NewIO("open", path, err)
	}
	defer f.Close()

	return read(f, append([]Option{WithPath(path)}, opts...)...)
}

// ReadCSV reads a scheme from comma-separated line pairs:
//
//	word,old1,old2,old3
//	_,new1,,new2
//
// The first line lists the word and its phones in the old scheme; empty
// fields are dropped. The second line is aligned with the first by
// position and its empty fields are kept, since they mark where one rule
// continues. The leading field of each line is not a label. Blank lines and
// lines starting with '#' are ignored. A word defined twice keeps its last
// definition and a duplicate_word warning is reported.
func ReadCSV(r io.Reader, opts ...Option) (Scheme, error) {
	o := buildOptions(opts)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	s := Scheme{}
	for {
		phones, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, o.csvError(err)
		}
		line, _ := cr.FieldPos(0)
		word := strings.TrimSpace(phones[0])
		if word == "" {
			return nil, &cserrors.SchemeConfigError{Path: o.path, Line: line, Message: "empty word field"}
		}

		replacements, err := cr.Read()
		if err == io.EOF {
			return nil, &cserrors.SchemeConfigError{Path: o.path, Line: line, Word: word, Message: "missing replacement line"}
		}
		if err != nil {
			return nil, o.csvError(err)
		}

		rules, err := ParseRuleRow(nonEmpty(phones[1:]), trimAll(replacements[1:]))
		if err != nil {
			return nil, o.annotate(err, line, word)
		}
		if _, dup := s[word]; dup {
			o.reporter.Report(events.Event{
				Severity: events.SeverityWarn,
				Kind:     events.KindDuplicateWord,
				File:     o.path,
				Word:     word,
				Message:  fmt.Sprintf("redefined at line %d", line),
			})
		}
		s[word] = rules
	}
	return s, nil
}

// yamlScheme is the on-disk YAML layout: word -> list of {old, new}.
type yamlScheme map[string][]Rule

// ReadYAML reads a scheme written as a mapping from word to rule list:
//
//	hoeng1:
//	  - {old: [h, oe], new: hoe}
//	  - {old: [ng], new: ng}
func ReadYAML(r io.Reader, opts ...Option) (Scheme, error) {
	o := buildOptions(opts)

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw yamlScheme
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Scheme{}, nil
		}
		return nil, &cserrors.SchemeConfigError{Path: o.path, Message: "invalid YAML", Err: err}
	}

	s := make(Scheme, len(raw))
	for _, word := range Scheme(raw).Words() {
		rules := raw[word]
		if err := ValidateRules(rules); err != nil {
			return nil, o.annotate(err, 0, word)
		}
		s[word] = cloneRules(rules)
	}
	return s, nil
}

// WriteYAML writes s in the layout ReadYAML accepts.
func WriteYAML(w io.Writer, s Scheme) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlScheme(s)); err != nil {
		return fmt.Errorf("failed to encode scheme: %w", err)
	}
	return enc.Close()
}

func (o loadOptions) csvError(err error) error {
	sce := &cserrors.SchemeConfigError{Path: o.path, Message: "invalid CSV", Err: err}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		sce.Line = pe.Line
		sce.Message = pe.Err.Error()
	}
	return sce
}

func (o loadOptions) annotate(err error, line int, word string) error {
	var sce *cserrors.SchemeConfigError
	if errors.As(err, &sce) {
		sce.Path = o.path
		sce.Line = line
		sce.Word = word
		return sce
	}
	return err
}

func nonEmpty(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
