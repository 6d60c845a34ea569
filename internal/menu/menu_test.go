package menu

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperifyio/dagenslunch/internal/region"
	"github.com/hyperifyio/dagenslunch/internal/weekday"
)

func TestCollect_DispatchesByKind(t *testing.T) {
	sources := []Source{
		NewTextSource("Madame", "Måndag Soup of the day Dagens rätt Fish cakes Tisdag Pasta", Rules{Keywords: []string{"Dagens", "Soup"}}),
		NewStructuredSource("Gästgivargården", map[weekday.Weekday][]string{
			weekday.Monday: {"Kåldolmar med gräddsås", "Vegetarisk lasagne"},
		}, Rules{}),
		NewImageSource("Matkällaren", []region.Detection{
			{Text: "Måndag", X: 10, Y: 40, Width: 80, Height: 20},
			{Text: "Tisdag", X: 10, Y: 240, Width: 80, Height: 20},
		}, 1000, 600, "menu.png", Rules{}),
	}
	got := Collect(sources, weekday.Monday)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}

	text := got["Madame"]
	if want := []string{"Soup of the day", "Dagens rätt Fish cakes"}; !reflect.DeepEqual(text.Items, want) {
		t.Fatalf("text items %q, want %q", text.Items, want)
	}
	if text.Kind != KindText || text.Day != "måndag" {
		t.Fatalf("unexpected metadata %+v", text)
	}

	structured := got["Gästgivargården"]
	if len(structured.Items) != 2 || structured.Items[0] != "Kåldolmar med gräddsås" {
		t.Fatalf("structured items %q", structured.Items)
	}

	img := got["Matkällaren"]
	if img.Region == nil {
		t.Fatalf("expected image region")
	}
	if *img.Region != (region.Rect{Left: 360, Top: 40, Right: 970, Bottom: 240}) {
		t.Fatalf("region %v", *img.Region)
	}
	if img.ImageRef != "menu.png" || !img.Available() {
		t.Fatalf("unexpected image result %+v", img)
	}
}

func TestCollect_NotFoundIsEmptyNotError(t *testing.T) {
	sources := []Source{
		NewTextSource("a", "Ingen meny denna vecka", Rules{}),
		NewStructuredSource("b", map[weekday.Weekday][]string{weekday.Monday: {"Pytt i panna"}}, Rules{}),
		NewImageSource("c", nil, 800, 600, "c.png", Rules{}),
	}
	for name, res := range Collect(sources, weekday.Friday) {
		if res.Available() {
			t.Fatalf("%s: expected unavailable, got %+v", name, res)
		}
	}
}

func TestCollectOrdered_PreservesSourceOrder(t *testing.T) {
	sources := []Source{
		NewStructuredSource("z", nil, Rules{}),
		NewStructuredSource("a", nil, Rules{}),
		NewStructuredSource("m", nil, Rules{}),
	}
	res := CollectOrdered(sources, weekday.Tuesday)
	var names []string
	for _, r := range res {
		names = append(names, r.Source)
	}
	if strings.Join(names, ",") != "z,a,m" {
		t.Fatalf("order %v", names)
	}
}

func TestCollectOne_UnknownKindAndWeekend(t *testing.T) {
	if res := CollectOne(Source{Name: "x", Kind: "pdf"}, weekday.Monday); res.Available() {
		t.Fatalf("unknown kind should be unavailable")
	}
	src := NewStructuredSource("s", map[weekday.Weekday][]string{weekday.Monday: {"Köttbullar"}}, Rules{})
	if res := CollectOne(src, weekday.Weekday(5)); res.Available() {
		t.Fatalf("invalid day should be unavailable")
	}
}

func TestCollect_FilterPropertyHolds(t *testing.T) {
	rules := Rules{
		Keywords:  []string{"Dagens", "Soppa", "Kontakt", "Öppettider"},
		Deny:      []string{"Kontakt", "Öppettider 11-14"},
		MinLength: 8,
	}
	text := "Onsdag Dagens Fisk Soppa Ärtsoppa med fläsk Kontakt Öppettider 11-14 Torsdag Pasta"
	res := CollectOne(NewTextSource("x", text, rules), weekday.Wednesday)
	if len(res.Items) == 0 {
		t.Fatalf("expected some items")
	}
	for _, it := range res.Items {
		if utf8.RuneCountInString(it) < rules.MinLength {
			t.Fatalf("item %q shorter than minimum", it)
		}
		for _, d := range rules.Deny {
			if strings.EqualFold(it, d) {
				t.Fatalf("deny-listed item %q survived", it)
			}
		}
	}
}
