// Package reseg rewrites the phone tier of a TextGrid according to a
// transcription scheme.
//
// The first tier of a document is taken as the word tier and the second as
// the phone tier. Each word is aligned with the run of phones that ends
// exactly at the word's end time; the run is then replaced rule by rule
// when its labels match the scheme, or copied unchanged otherwise. Phone
// time is never created or dropped.
package reseg

import (
	"fmt"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
	"github.com/FocuswithJustin/changescheme/core/textgrid"
)

// Tier positions within a document.
const (
	WordTier  = 0
	PhoneTier = 1
)

// Alignment pairs a word interval with the phone intervals it spans.
type Alignment struct {
	Word  int // index into the word tier
	Start int // first phone index
	End   int // last phone index, inclusive
}

// Len returns the number of phones in the run.
func (a Alignment) Len() int {
	return a.End - a.Start + 1
}

// AlignWordsToPhones walks the word tier in order and, for each word, scans
// forward through the phones not yet consumed until it finds one whose
// MaxTime equals the word's MaxTime. Times are compared exactly as parsed.
//
// If the phone tier runs out before a word's end time is found, the
// alignments made so far are returned together with an
// *errors.AlignmentError for that word. No later word is aligned.
func AlignWordsToPhones(doc *textgrid.Document) ([]Alignment, error) {
	if err := requireTiers(doc); err != nil {
		return nil, err
	}
	words := doc.Items[WordTier].Intervals
	phones := doc.Items[PhoneTier].Intervals

	aligns := make([]Alignment, 0, len(words))
	cursor := 0
	for wi, w := range words {
		end := -1
		for j := cursor; j < len(phones); j++ {
			if phones[j].MaxTime == w.MaxTime {
				end = j
				break
			}
		}
		if end < 0 {
			return aligns, &cserrors.AlignmentError{WordIndex: wi, Word: w.Text, MaxTime: w.MaxTime}
		}
		aligns = append(aligns, Alignment{Word: wi, Start: cursor, End: end})
		cursor = end + 1
	}
	return aligns, nil
}

func requireTiers(doc *textgrid.Document) error {
	if doc == nil {
		return cserrors.NewFormat(0, "", "no document")
	}
	if len(doc.Items) < 2 {
		return cserrors.NewFormat(0, "", fmt.Sprintf("expected a word tier and a phone tier, found %d tier(s)", len(doc.Items)))
	}
	return nil
}
