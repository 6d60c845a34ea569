package menu

import (
	"reflect"
	"testing"
)

func TestFilter_DropsBlankShortAndDenied(t *testing.T) {
	lines := []string{"  ", "ok", "Kontakt", "KONTAKT:", "Pasta carbonara", "Ring oss för catering 070-123"}
	got := Filter(lines, Rules{Deny: []string{"kontakt"}, DenyContaining: []string{"catering"}})
	want := []string{"Pasta carbonara"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFilter_StopAtPhraseEndsCollection(t *testing.T) {
	lines := []string{
		"Stekt strömming med potatismos",
		"Vegetarisk curry I priset ingår sallad och bröd",
		"Lördag stängt",
		"Helgmeny",
	}
	got := Filter(lines, Rules{StopAt: []string{"i priset ingår"}})
	want := []string{"Stekt strömming med potatismos", "Vegetarisk curry"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFilter_StopAtLineStartDropsLine(t *testing.T) {
	lines := []string{"Fläskfilé med bearnaise", "Sallad och bröd ingår", "Kaffe 20 kr"}
	got := Filter(lines, Rules{StopAt: []string{"sallad och bröd"}})
	want := []string{"Fläskfilé med bearnaise"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFilter_KeepsDuplicatesAndOrder(t *testing.T) {
	lines := []string{"Dagens soppa", "Pannbiff med lök", "Dagens soppa"}
	got := Filter(lines, Rules{})
	if !reflect.DeepEqual(got, lines) {
		t.Fatalf("got %q, want %q", got, lines)
	}
}

func TestFilter_StopAtKeepsDecomposedTextAsWritten(t *testing.T) {
	line := "Ko\u0308ttbullar MED Lingon. I priset ingår sallad"
	got := Filter([]string{line}, Rules{StopAt: []string{"i priset ingår"}})
	want := []string{"Ko\u0308ttbullar MED Lingon."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFilter_PunctuationOnlyDenyPhrase(t *testing.T) {
	lines := []string{"...", "Pasta", " ... "}
	got := Filter(lines, Rules{Deny: []string{"..."}, MinLength: 1})
	want := []string{"Pasta"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}
