package parser

import (
	"strings"
	"testing"
)

func TestTextParser_SingleNormalizedNode(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(tree.Children))
	}
	if tree.Children[0].Text != input {
		t.Errorf("expected text unchanged, got %q", tree.Children[0].Text)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader("  \n\n"), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", tree.Title)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children for blank input, got %d", len(tree.Children))
	}
}

func TestTextParser_CollapsesBlankRuns(t *testing.T) {
	input := "Para one.   \n\n\n   \nPara two.\r\n"
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(tree.Children))
	}
	if got, want := tree.Children[0].Text, "Para one.\n\nPara two."; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTextParser_KeepsStructureMarkers(t *testing.T) {
	// Indentation and list markers matter to the segmenter.
	input := "Steps:\n- one\n  continued\n- two\n\n| a | b |\n| 1 | 2 |"
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "steps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Children[0].Text != input {
		t.Errorf("expected structure preserved, got %q", tree.Children[0].Text)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"a.txt", false},
		{"a.MD", false},
		{"a.markdown", false},
		{"a.csv", false},
		{"a.htm", false},
		{"a.pdf", false},
		{"a.docx", false},
		{"a.exe", true},
		{"noext", true},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename, Options{})
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.filename)
			}
			if IsSupportedExtension(tt.filename) {
				t.Errorf("%s: should not be supported", tt.filename)
			}
			continue
		}
		if err != nil || p == nil {
			t.Errorf("%s: unexpected error %v", tt.filename, err)
		}
		if !IsSupportedExtension(tt.filename) {
			t.Errorf("%s: should be supported", tt.filename)
		}
	}
}

func TestPipeTable(t *testing.T) {
	got := pipeTable([][]string{{"name", "note"}, {"a|b"}, {"c", "d"}})
	want := "| name | note |\n| --- | --- |\n| a\\|b |  |\n| c | d |"
	if got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
	if pipeTable(nil) != "" {
		t.Errorf("expected empty table for no rows")
	}
}
