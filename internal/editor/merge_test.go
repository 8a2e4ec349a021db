package editor

import (
	"strings"
	"testing"
)

func TestParseAnnotationsCumulativeAnchors(t *testing.T) {
	enhanced := "A. B.\n[VISUAL: x]\nC.\n[VISUAL: y]"
	anns := ParseAnnotations(enhanced)
	if len(anns) != 2 {
		t.Fatalf("len = %d, want 2", len(anns))
	}
	if anns[0].Anchor != "A. B." {
		t.Errorf("first anchor = %q", anns[0].Anchor)
	}
	// The buffer is never reset: the second anchor grows past the first.
	if anns[1].Anchor != "A. B.\nC." {
		t.Errorf("second anchor = %q, want cumulative prefix", anns[1].Anchor)
	}
	if anns[1].Text != "[VISUAL: y]" {
		t.Errorf("second text = %q", anns[1].Text)
	}
}

func TestParseAnnotationsLeadingAnnotationDropped(t *testing.T) {
	anns := ParseAnnotations("[VISUAL: orphan]\nSome text.\n[VISUAL: kept]")
	if len(anns) != 1 {
		t.Fatalf("len = %d, want 1", len(anns))
	}
	if anns[0].Text != "[VISUAL: kept]" {
		t.Errorf("text = %q", anns[0].Text)
	}
}

func TestParseAnnotationsEmptyInput(t *testing.T) {
	if anns := ParseAnnotations("  \n "); anns != nil {
		t.Errorf("anns = %v, want nil", anns)
	}
}

func TestInsertionPointExactMatch(t *testing.T) {
	pos, ok := insertionPoint("A. B. C.", "A. B.")
	if !ok {
		t.Fatal("expected match")
	}
	if pos != len("A. B.") {
		t.Errorf("pos = %d", pos)
	}
}

func TestInsertionPointLastSentenceFallback(t *testing.T) {
	// The anchor no longer matches verbatim (the live text drifted), but
	// its last sentence still exists followed by terminal punctuation.
	content := "Intro changed a lot. The key point stands! More text."
	pos, ok := insertionPoint(content, "Original intro. The key point stands")
	if !ok {
		t.Fatal("expected fallback match")
	}
	want := strings.Index(content, "The key point stands!") + len("The key point stands!")
	if pos != want {
		t.Errorf("pos = %d, want %d", pos, want)
	}
}

func TestInsertionPointNoMatch(t *testing.T) {
	if _, ok := insertionPoint("completely different text", "missing anchor."); ok {
		t.Fatal("expected no match")
	}
}

func TestMergeCumulativeSemantics(t *testing.T) {
	enhanced := "A. B.\n[VISUAL: x]\nC.\n[VISUAL: y]"
	got := Merge("A. B. C.", enhanced)
	want := "A. B.\n[VISUAL: x] C.\n[VISUAL: y]"
	if got != want {
		t.Errorf("merged = %q, want %q", got, want)
	}
}

func TestMergeSkipsUnplaceable(t *testing.T) {
	enhanced := "Nothing like the live text.\n[VISUAL: dropped]\nA. B.\n[VISUAL: kept]"
	got := Merge("A. B. C.", enhanced)
	if strings.Contains(got, "dropped") {
		t.Errorf("unplaceable annotation was inserted: %q", got)
	}
	if !strings.Contains(got, "[VISUAL: kept]") {
		t.Errorf("later annotation should still be attempted: %q", got)
	}
}

func TestMergeNoAnnotations(t *testing.T) {
	if got := Merge("A. B.", "A. B."); got != "A. B." {
		t.Errorf("got = %q", got)
	}
}

func TestSynthesizeTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    string
	}{
		{"explicit title wins", "My Title", "content", "My Title"},
		{"short content verbatim", "", "short note", "short note"},
		{"exactly 50 chars no ellipsis", "", strings.Repeat("x", 50), strings.Repeat("x", 50)},
		{"long content truncated", "", strings.Repeat("x", 60), strings.Repeat("x", 50) + "..."},
		{"whitespace title ignored", "   ", "body", "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SynthesizeTitle(tt.title, tt.content); got != tt.want {
				t.Errorf("SynthesizeTitle(%q, %q) = %q, want %q", tt.title, tt.content, got, tt.want)
			}
		})
	}
}

func TestLastSentence(t *testing.T) {
	if got := lastSentence("One. Two! Three"); got != "Three" {
		t.Errorf("got %q", got)
	}
	if got := lastSentence("!!!"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
