package scheme

import (
	"errors"
	"reflect"
	"testing"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
)

func TestParseRuleRow(t *testing.T) {
	tests := []struct {
		name string
		old  []string
		new  []string
		want []Rule
	}{
		{
			name: "two groups",
			old:  []string{"p", "h", "o", "n"},
			new:  []string{"ph", "", "on", ""},
			want: []Rule{
				{Old: []string{"p", "h"}, New: "ph"},
				{Old: []string{"o", "n"}, New: "on"},
			},
		},
		{
			name: "label position decides the split",
			old:  []string{"p", "h", "o", "n"},
			new:  []string{"ph", "", "", "on"},
			want: []Rule{
				{Old: []string{"p", "h", "o"}, New: "ph"},
				{Old: []string{"n"}, New: "on"},
			},
		},
		{
			name: "one to one",
			old:  []string{"s", "i"},
			new:  []string{"s", "ii"},
			want: []Rule{
				{Old: []string{"s"}, New: "s"},
				{Old: []string{"i"}, New: "ii"},
			},
		},
		{
			name: "single rule absorbs row",
			old:  []string{"h", "oe", "ng"},
			new:  []string{"hoeng"},
			want: []Rule{{Old: []string{"h", "oe", "ng"}, New: "hoeng"}},
		},
		{
			name: "trailing empty replacements",
			old:  []string{"a", "b"},
			new:  []string{"a", "b", "", ""},
			want: []Rule{
				{Old: []string{"a"}, New: "a"},
				{Old: []string{"b"}, New: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRuleRow(tt.old, tt.new)
			if err != nil {
				t.Fatalf("ParseRuleRow failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRuleRow() = %+v, want %+v", got, tt.want)
			}
			if old := OldPhones(got); !reflect.DeepEqual(old, tt.old) {
				t.Errorf("OldPhones() = %v, want %v", old, tt.old)
			}
		})
	}
}

func TestParseRuleRow_Errors(t *testing.T) {
	tests := []struct {
		name string
		old  []string
		new  []string
	}{
		{"no replacement label", []string{"a", "b"}, []string{"", ""}},
		{"empty rows", nil, nil},
		{"orphaned leading phones", []string{"a", "b"}, []string{"", "b"}},
		{"label beyond row", []string{"a"}, []string{"a", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleRow(tt.old, tt.new)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, cserrors.ErrSchemeConfig) {
				t.Errorf("errors.Is(err, ErrSchemeConfig) = false for %v", err)
			}
		})
	}
}

func TestParseRuleRow_DoesNotAlias(t *testing.T) {
	old := []string{"a", "b"}
	rules, err := ParseRuleRow(old, []string{"ab", ""})
	if err != nil {
		t.Fatalf("ParseRuleRow failed: %v", err)
	}
	old[0] = "z"
	if rules[0].Old[0] != "a" {
		t.Error("rule shares storage with the input row")
	}
}

func TestScheme_Sequences(t *testing.T) {
	s := Scheme{
		"W": {
			{Old: []string{"a", "b"}, New: "x"},
			{Old: []string{"c"}, New: "y"},
		},
	}

	if got := s.OldPhones("W"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("OldPhones() = %v", got)
	}
	if got := s.NewPhones("W"); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("NewPhones() = %v", got)
	}
	if got := s.OldPhones("missing"); got != nil {
		t.Errorf("OldPhones(missing) = %v, want nil", got)
	}
	if _, ok := s.Lookup("missing"); ok {
		t.Error("Lookup(missing) reported ok")
	}
}

func TestScheme_WithPauses(t *testing.T) {
	s := Scheme{
		"SP": {{Old: []string{"sil"}, New: "pau"}},
		"a":  {{Old: []string{"a"}, New: "aa"}},
	}
	got := s.WithPauses()

	want := []Rule{{Old: []string{"SP"}, New: "SP"}}
	if !reflect.DeepEqual(got["SP"], want) {
		t.Errorf("SP = %+v, want %+v", got["SP"], want)
	}
	if !reflect.DeepEqual(got["AP"], []Rule{{Old: []string{"AP"}, New: "AP"}}) {
		t.Errorf("AP = %+v", got["AP"])
	}
	if s["SP"][0].New != "pau" {
		t.Error("WithPauses modified the receiver")
	}
	if _, ok := s["AP"]; ok {
		t.Error("WithPauses added to the receiver")
	}
	if got.Len() != 3 {
		t.Errorf("Len() = %d, want 3", got.Len())
	}
}

func TestScheme_Words(t *testing.T) {
	s := Scheme{"b": nil, "a": nil, "c": nil}
	if got := s.Words(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Words() = %v", got)
	}
}

func TestScheme_Normalized(t *testing.T) {
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"
	s := Scheme{decomposed: {{Old: []string{"e\u0301"}, New: "e\u0301"}}}

	n := s.Normalized()
	rules, ok := n.Lookup(composed)
	if !ok {
		t.Fatalf("normalized scheme has no %q: %v", composed, n.Words())
	}
	if rules[0].Old[0] != "\u00e9" || rules[0].New != "\u00e9" {
		t.Errorf("labels not normalized: %+v", rules[0])
	}
	if _, ok := s[composed]; ok {
		t.Error("Normalized modified the receiver")
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name    string
		rules   []Rule
		wantErr bool
	}{
		{"valid", []Rule{{Old: []string{"a"}, New: "b"}}, false},
		{"empty", nil, true},
		{"no old", []Rule{{New: "b"}}, true},
		{"empty old label", []Rule{{Old: []string{""}, New: "b"}}, true},
		{"no new", []Rule{{Old: []string{"a"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRules(tt.rules)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRules() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
