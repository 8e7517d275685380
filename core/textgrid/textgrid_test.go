package textgrid

import (
	"testing"
)

func TestClone_Independent(t *testing.T) {
	orig := sampleDocument()
	c := orig.Clone()

	c.Items[1].Intervals[0].Text = "changed"
	c.Items[1].Intervals = c.Items[1].Intervals[:1]
	c.Items[0].Name = "renamed"

	if orig.Items[1].Intervals[0].Text != "n" {
		t.Error("Clone shares interval storage with the original")
	}
	if len(orig.Items[1].Intervals) != 4 {
		t.Error("Clone shares interval slice header with the original")
	}
	if orig.Items[0].Name != "words" {
		t.Error("Clone shares tier storage with the original")
	}
}

func TestTier_Span(t *testing.T) {
	doc := sampleDocument()
	lo, hi := doc.Items[1].Span()
	if lo != 0 || hi != 2.5 {
		t.Errorf("Span() = (%v, %v), want (0, 2.5)", lo, hi)
	}

	empty := Tier{MinTime: 1, MaxTime: 2}
	lo, hi = empty.Span()
	if lo != 1 || hi != 2 {
		t.Errorf("empty Span() = (%v, %v), want (1, 2)", lo, hi)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Document)
		wantErr bool
	}{
		{"valid", func(d *Document) {}, false},
		{"inverted interval", func(d *Document) { d.Items[1].Intervals[0].MaxTime = -1 }, true},
		{"overlap", func(d *Document) { d.Items[1].Intervals[2].MinTime = 0.9 }, true},
		{"outside tier", func(d *Document) { d.Items[1].Intervals[3].MaxTime = 3 }, true},
		{"tier outside document", func(d *Document) { d.Items[0].MaxTime = 9 }, true},
		{"inverted document", func(d *Document) { d.MinTime = 5 }, true},
		{"gap is allowed", func(d *Document) { d.Items[1].Intervals[2].MinTime = 1.5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDocument()
			tt.mutate(d)
			err := d.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

