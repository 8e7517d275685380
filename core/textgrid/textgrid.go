// Package textgrid reads and writes Praat TextGrid files in the long
// ("ooTextFile") text format.
//
// A Document holds an ordered list of interval tiers; each tier holds an
// ordered list of labelled time intervals. Only interval tiers are
// supported. Round trips are semantic: numbers are written in Go's shortest
// decimal form, so the bytes may differ from the source while the values do
// not.
package textgrid

import (
	"fmt"
)

// Literals expected in the file header and tier class lines.
const (
	FileType          = "ooTextFile"
	ObjectClass       = "TextGrid"
	IntervalTierClass = "IntervalTier"
)

// Interval is one labelled segment on a tier.
type Interval struct {
	MinTime float64 `json:"xmin"`
	MaxTime float64 `json:"xmax"`
	Text    string  `json:"text"`
}

// Tier is a named, ordered track of intervals.
type Tier struct {
	Name      string     `json:"name"`
	MinTime   float64    `json:"xmin"`
	MaxTime   float64    `json:"xmax"`
	Intervals []Interval `json:"intervals"`
}

// Size returns the number of intervals.
func (t *Tier) Size() int {
	return len(t.Intervals)
}

// Labels returns the interval texts in order.
func (t *Tier) Labels() []string {
	out := make([]string, len(t.Intervals))
	for i, iv := range t.Intervals {
		out[i] = iv.Text
	}
	return out
}

// Span returns the first interval's MinTime and the last interval's MaxTime.
// An empty tier returns the tier bounds.
func (t *Tier) Span() (float64, float64) {
	if len(t.Intervals) == 0 {
		return t.MinTime, t.MaxTime
	}
	return t.Intervals[0].MinTime, t.Intervals[len(t.Intervals)-1].MaxTime
}

// Clone returns a deep copy of the tier.
func (t *Tier) Clone() Tier {
	c := *t
	c.Intervals = make([]Interval, len(t.Intervals))
	copy(c.Intervals, t.Intervals)
	return c
}

// Validate checks that intervals are well formed, time ordered,
// non-overlapping and inside the tier bounds.
func (t *Tier) Validate() error {
	prevMax := t.MinTime
	for i, iv := range t.Intervals {
		if iv.MinTime > iv.MaxTime {
			return fmt.Errorf("tier %q interval %d: xmin %v > xmax %v", t.Name, i+1, iv.MinTime, iv.MaxTime)
		}
		if iv.MinTime < t.MinTime || iv.MaxTime > t.MaxTime {
			return fmt.Errorf("tier %q interval %d: [%v, %v] outside tier bounds [%v, %v]",
				t.Name, i+1, iv.MinTime, iv.MaxTime, t.MinTime, t.MaxTime)
		}
		if iv.MinTime < prevMax {
			return fmt.Errorf("tier %q interval %d: starts at %v before previous end %v", t.Name, i+1, iv.MinTime, prevMax)
		}
		prevMax = iv.MaxTime
	}
	return nil
}

// Document is an in-memory TextGrid.
type Document struct {
	MinTime float64 `json:"xmin"`
	MaxTime float64 `json:"xmax"`
	Items   []Tier  `json:"items"`
}

// Size returns the number of tiers.
func (d *Document) Size() int {
	return len(d.Items)
}

// Clone returns a deep copy of the document. The copy shares no slices with d.
func (d *Document) Clone() *Document {
	c := &Document{
		MinTime: d.MinTime,
		MaxTime: d.MaxTime,
		Items:   make([]Tier, len(d.Items)),
	}
	for i := range d.Items {
		c.Items[i] = d.Items[i].Clone()
	}
	return c
}

// Validate checks every tier and that tiers lie within the document bounds.
func (d *Document) Validate() error {
	if d.MinTime > d.MaxTime {
		return fmt.Errorf("document xmin %v > xmax %v", d.MinTime, d.MaxTime)
	}
	for i := range d.Items {
		t := &d.Items[i]
		if t.MinTime < d.MinTime || t.MaxTime > d.MaxTime {
			return fmt.Errorf("tier %q bounds [%v, %v] outside document bounds [%v, %v]",
				t.Name, t.MinTime, t.MaxTime, d.MinTime, d.MaxTime)
		}
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}
