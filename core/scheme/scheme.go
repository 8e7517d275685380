// Package scheme holds word-indexed phone substitution tables.
//
// A Scheme maps a word to an ordered list of rules. Each rule collapses one
// or more consecutive phones of the old transcription scheme into a single
// phone of the new one. Concatenating the Old labels of a word's rules gives
// the phone sequence the word is expected to have before conversion;
// concatenating the New labels gives the sequence after it.
package scheme

import (
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
)

// Pause markers that always map to themselves.
const (
	ShortPause        = "SP"
	ArticulatoryPause = "AP"
)

// Rule replaces the consecutive phones Old with the single phone New.
type Rule struct {
	Old []string `json:"old" yaml:"old"`
	New string   `json:"new" yaml:"new"`
}

// Scheme maps a word to its rules.
type Scheme map[string][]Rule

// Lookup returns the rules for word.
func (s Scheme) Lookup(word string) ([]Rule, bool) {
	rules, ok := s[word]
	return rules, ok
}

// OldPhones returns the concatenated Old labels for word, or nil.
func (s Scheme) OldPhones(word string) []string {
	return OldPhones(s[word])
}

// NewPhones returns the New labels for word, or nil.
func (s Scheme) NewPhones(word string) []string {
	return NewPhones(s[word])
}

// Words returns the defined words in sorted order.
func (s Scheme) Words() []string {
	words := make([]string, 0, len(s))
	for w := range s {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Len returns the number of words.
func (s Scheme) Len() int {
	return len(s)
}

// Clone returns a deep copy.
func (s Scheme) Clone() Scheme {
	c := make(Scheme, len(s))
	for w, rules := range s {
		c[w] = cloneRules(rules)
	}
	return c
}

// WithPauses returns a copy of s in which the short-pause and
// articulatory-pause markers map to themselves, replacing any definition
// the scheme file gave them.
func (s Scheme) WithPauses() Scheme {
	c := s.Clone()
	c[ShortPause] = []Rule{{Old: []string{ShortPause}, New: ShortPause}}
	c[ArticulatoryPause] = []Rule{{Old: []string{ArticulatoryPause}, New: ArticulatoryPause}}
	return c
}

// Normalized returns a copy of s with words and labels in Unicode NFC.
// When two words collide after normalization the lexically greater
// original key wins, so the result does not depend on map order.
func (s Scheme) Normalized() Scheme {
	c := make(Scheme, len(s))
	for _, w := range s.Words() {
		rules := cloneRules(s[w])
		for i := range rules {
			rules[i].New = Normalize(rules[i].New)
			for j := range rules[i].Old {
				rules[i].Old[j] = Normalize(rules[i].Old[j])
			}
		}
		c[Normalize(w)] = rules
	}
	return c
}

// Normalize returns the NFC form of a word or phone label.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// OldPhones concatenates the Old labels of rules.
func OldPhones(rules []Rule) []string {
	if rules == nil {
		return nil
	}
	n := 0
	for _, r := range rules {
		n += len(r.Old)
	}
	out := make([]string, 0, n)
	for _, r := range rules {
		out = append(out, r.Old...)
	}
	return out
}

// NewPhones lists the New labels of rules.
func NewPhones(rules []Rule) []string {
	if rules == nil {
		return nil
	}
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.New
	}
	return out
}

// ParseRuleRow builds the rules for one word from a row of old phones and a
// positionally aligned row of new labels. A non-empty new label at position
// i starts a rule; the rule absorbs old phones up to the next non-empty new
// label or the end of the row.
//
//	old: p  h  o  n
//	new: ph -  on -    ->  {[p h] ph} {[o n] on}
//	new: ph -  -  on   ->  {[p h o] ph} {[n] on}
//
// A new row shorter than the old row is treated as if padded with empty
// labels. The first new label must sit at position 0, every old phone must
// belong to a rule, and the new row may only extend past the old row with
// empty fields. Violations are returned as *errors.SchemeConfigError.
func ParseRuleRow(oldLabels, newLabels []string) ([]Rule, error) {
	if len(oldLabels) == 0 {
		return nil, cserrors.NewSchemeConfig("", "empty phone row")
	}
	if len(newLabels) > len(oldLabels) {
		for _, extra := range newLabels[len(oldLabels):] {
			if extra != "" {
				return nil, cserrors.NewSchemeConfig("", "replacement label beyond the last phone: "+extra)
			}
		}
	}

	var rules []Rule
	start := -1
	var label string
	for i := range oldLabels {
		if i >= len(newLabels) || newLabels[i] == "" {
			continue
		}
		if start < 0 {
			if i != 0 {
				return nil, cserrors.NewSchemeConfig("", "phones before the first replacement label belong to no rule")
			}
		} else {
			rules = append(rules, Rule{Old: cloneStrings(oldLabels[start:i]), New: label})
		}
		start = i
		label = newLabels[i]
	}
	if start < 0 {
		return nil, cserrors.NewSchemeConfig("", "row has no replacement label")
	}
	rules = append(rules, Rule{Old: cloneStrings(oldLabels[start:]), New: label})
	return rules, nil
}

// ValidateRules checks that every rule has at least one old phone and a
// non-empty new label.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return cserrors.NewSchemeConfig("", "no rules")
	}
	for i, r := range rules {
		if len(r.Old) == 0 {
			return cserrors.NewSchemeConfig("", "rule "+strconv.Itoa(i+1)+" has no old phones")
		}
		for _, ph := range r.Old {
			if ph == "" {
				return cserrors.NewSchemeConfig("", "rule "+strconv.Itoa(i+1)+" has an empty old phone")
			}
		}
		if r.New == "" {
			return cserrors.NewSchemeConfig("", "rule "+strconv.Itoa(i+1)+" has no new label")
		}
	}
	return nil
}

func cloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Old: cloneStrings(r.Old), New: r.New}
	}
	return out
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
