package textgrid

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// fieldGrammar is one `key = value` line. Keys are one or more words,
// optionally joined by a colon ("intervals: size"). Values are either a
// number or a double-quoted string in which "" stands for a literal quote.
//
//nolint:govet // participle grammar tags are not standard struct tags
type fieldGrammar struct {
	Key   []string      `@Ident ( ":"? @Ident )*`
	Value *valueGrammar `"=" @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type valueGrammar struct {
	Text   *string  `  @String`
	Number *float64 `| @Number`
}

var fieldLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:[^"]|"")*"`},
	{Name: "Number", Pattern: `[-+]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[=:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var fieldParser = participle.MustBuild[fieldGrammar](
	participle.Lexer(fieldLexer),
	participle.Elide("Whitespace"),
)

// field is a parsed field line.
type field struct {
	Key      string
	Text     string
	Number   float64
	IsNumber bool
}

// parseField parses a single field line.
func parseField(line string) (*field, error) {
	parsed, err := fieldParser.ParseString("", strings.TrimSpace(line))
	if err != nil {
		return nil, err
	}
	f := &field{Key: strings.Join(parsed.Key, " ")}
	switch {
	case parsed.Value.Number != nil:
		f.Number = *parsed.Value.Number
		f.IsNumber = true
	case parsed.Value.Text != nil:
		f.Text = unquote(*parsed.Value.Text)
	}
	return f, nil
}

// unquote strips the surrounding quotes and collapses doubled quotes.
func unquote(s string) string {
	s = s[1 : len(s)-1]
	return strings.ReplaceAll(s, `""`, `"`)
}

// quote is the inverse of unquote.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
