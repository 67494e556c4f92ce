package compact

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is a diff segment kind.
type Op string

const (
	OpEqual  Op = "equal"
	OpDelete Op = "delete"
	OpInsert Op = "insert"
)

// Segment is a run of words sharing one Op.
type Segment struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// WordDiff compares before and after word by word.
func WordDiff(before, after string) []Segment {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	// One word per line lets the line-mode encoder treat words as atoms.
	a, b, words := dmp.DiffLinesToChars(wordLines(before), wordLines(after))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, words)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		text := strings.Join(strings.Fields(d.Text), " ")
		if text == "" {
			continue
		}
		var op Op
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		default:
			op = OpEqual
		}
		if n := len(segments); n > 0 && segments[n-1].Op == op {
			segments[n-1].Text += " " + text
			continue
		}
		segments = append(segments, Segment{Op: op, Text: text})
	}
	return segments
}

func wordLines(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, "\n") + "\n"
}

// RenderDiff marks deletions as [-words-] and insertions as {+words+}.
func RenderDiff(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		switch s.Op {
		case OpDelete:
			parts[i] = "[-" + s.Text + "-]"
		case OpInsert:
			parts[i] = "{+" + s.Text + "+}"
		default:
			parts[i] = s.Text
		}
	}
	return strings.Join(parts, " ")
}
