// Package weekday holds the canonical set of working-day labels used to
// anchor menu sections in scraped text and OCR output.
package weekday

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Weekday is a working day, Monday through Friday. The zero value is Monday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

// None marks a day without lunch service, such as a weekend. It is not Valid.
const None Weekday = -1

// labels are the canonical lowercase Swedish forms, indexed by Weekday.
var labels = [...]string{"måndag", "tisdag", "onsdag", "torsdag", "fredag"}

// Count is the number of working days.
const Count = len(labels)

// FromIndex maps a Monday-based day index (0..6) to a Weekday. Saturday and
// Sunday (5, 6) and out-of-range values report false.
func FromIndex(i int) (Weekday, bool) {
	if i < 0 || i >= Count {
		return 0, false
	}
	return Weekday(i), true
}

// FromTime resolves the working day of t in its own location.
func FromTime(t time.Time) (Weekday, bool) {
	// time.Weekday counts from Sunday.
	return FromIndex((int(t.Weekday()) + 6) % 7)
}

// All returns every working day in calendar order.
func All() []Weekday {
	out := make([]Weekday, Count)
	for i := range out {
		out[i] = Weekday(i)
	}
	return out
}

// Valid reports whether d is one of the defined working days.
func (d Weekday) Valid() bool { return d >= 0 && int(d) < Count }

// Index returns the Monday-based index of d.
func (d Weekday) Index() int { return int(d) }

// Label returns the canonical lowercase label, or "" for an invalid value.
func (d Weekday) Label() string {
	if !d.Valid() {
		return ""
	}
	return labels[d]
}

func (d Weekday) String() string {
	if !d.Valid() {
		return "weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return labels[d]
}

// Normalize folds s to the form labels are compared in: NFC composed and
// lowercased with Swedish casing rules.
func Normalize(s string) string {
	// Casers carry state, so one is built per call.
	return cases.Lower(language.Swedish).String(norm.NFC.String(s))
}

// Parse reports which weekday s names. s matches when, after normalization
// and removal of trailing whitespace and punctuation such as a colon, it is
// exactly equal to a label.
func Parse(s string) (Weekday, bool) {
	s = strings.TrimRightFunc(Normalize(strings.TrimSpace(s)), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	for i, l := range labels {
		if s == l {
			return Weekday(i), true
		}
	}
	return 0, false
}

// IsToken reports whether s is a weekday label.
func IsToken(s string) bool {
	_, ok := Parse(s)
	return ok
}
