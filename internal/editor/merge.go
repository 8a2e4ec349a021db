package editor

import "strings"

// annotationMarker is the structural prefix that identifies a visual
// direction line in an enhanced script.
const annotationMarker = "[VISUAL:"

// Annotation pairs a visual direction line with the anchor text it follows.
// Anchors are cumulative: each annotation anchors against everything that
// preceded it in the enhanced script, not just the lines since the previous
// annotation.
type Annotation struct {
	Anchor string
	Text   string
}

// ParseAnnotations scans an enhanced script line by line. Non-annotation
// lines accumulate into a running buffer; each annotation line is paired
// with the buffer accumulated so far (the buffer is intentionally never
// reset). An annotation with no preceding text is dropped.
func ParseAnnotations(enhanced string) []Annotation {
	var (
		out       []Annotation
		textSoFar strings.Builder
	)
	for _, line := range strings.Split(strings.TrimSpace(enhanced), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, annotationMarker):
			if anchor := strings.TrimSpace(textSoFar.String()); anchor != "" {
				out = append(out, Annotation{Anchor: anchor, Text: line})
			}
		case line != "":
			if textSoFar.Len() > 0 {
				textSoFar.WriteByte('\n')
			}
			textSoFar.WriteString(line)
		}
	}
	return out
}

// insertionPoint locates where an annotation belongs in content: immediately
// after an exact match of the anchor, or — when the live text has drifted —
// after the first occurrence of the anchor's last sentence followed by
// terminal punctuation. Returns ok=false when neither strategy matches.
func insertionPoint(content, anchor string) (int, bool) {
	if idx := strings.Index(content, anchor); idx >= 0 {
		return idx + len(anchor), true
	}

	sentence := lastSentence(anchor)
	if sentence == "" {
		return 0, false
	}

	// First occurrence, left to right, where the sentence is directly
	// followed by '.', '!' or '?'.
	from := 0
	for {
		idx := strings.Index(content[from:], sentence)
		if idx < 0 {
			return 0, false
		}
		end := from + idx + len(sentence)
		if end < len(content) {
			switch content[end] {
			case '.', '!', '?':
				return end + 1, true
			}
		}
		from = from + idx + 1
	}
}

// lastSentence returns the text after the final sentence-terminal
// punctuation in the anchor.
func lastSentence(anchor string) string {
	parts := strings.FieldsFunc(anchor, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	for i := len(parts) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(parts[i]); s != "" {
			return s
		}
	}
	return ""
}

// spliceAt inserts an annotation line at pos, preceded by a newline.
func spliceAt(content, annotation string, pos int) string {
	return content[:pos] + "\n" + annotation + content[pos:]
}

// Merge splices every placeable annotation from the enhanced script into the
// live script in one step, without playback. Annotations whose anchors
// cannot be located are skipped; a skip never aborts the remaining merges.
func Merge(liveScript, enhanced string) string {
	current := strings.TrimSpace(liveScript)
	for _, ann := range ParseAnnotations(enhanced) {
		pos, ok := insertionPoint(current, ann.Anchor)
		if !ok {
			continue
		}
		current = spliceAt(current, ann.Text, pos)
	}
	return current
}
