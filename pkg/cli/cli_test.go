package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{65 * time.Second, "01:05"},
		{59 * time.Minute, "59:00"},
		{3661 * time.Second, "1:01:01"},
	}
	for _, c := range cases {
		if got := FormatClock(c.d); got != c.want {
			t.Errorf("FormatClock(%v)=%q, want %q", c.d, got, c.want)
		}
	}
}

func TestFormatMeter(t *testing.T) {
	if got := FormatMeter(0, 4); got != "░░░░" {
		t.Errorf("empty meter=%q", got)
	}
	if got := FormatMeter(1, 4); got != "████" {
		t.Errorf("full meter=%q", got)
	}
	if got := FormatMeter(2.5, 4); got != "████" {
		t.Errorf("clamped meter=%q", got)
	}
	if got := FormatMeter(0.5, 4); strings.Count(got, "█") != 2 {
		t.Errorf("half meter=%q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 3); got != "hel" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("héllo", 0); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestFrameRenderContainsContent(t *testing.T) {
	f := Frame{
		Styles: NewStyles(DefaultTheme),
		Title:  "ELITS",
		Status: "connected",
		Badge:  "● speaking",
		Sections: []Section{
			{Label: "Transcript", Content: func() []string { return []string{"you: hi", "elit: hello"} }},
		},
		Help: "q=quit",
	}
	out := f.Render(60, 16)
	for _, want := range []string{"ELITS", "connected", "speaking", "you: hi", "elit: hello", "q=quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}
	if f.Render(2, 2) != "..." {
		t.Error("tiny terminal should render placeholder")
	}
}

func TestOutputJSONAndYAML(t *testing.T) {
	v := map[string]any{"name": "ada"}

	var buf bytes.Buffer
	if err := Output(v, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(buf.String(), `"name": "ada"`) {
		t.Errorf("json out=%q", buf.String())
	}

	buf.Reset()
	if err := Output(v, OutputOptions{Format: FormatYAML, Writer: &buf}); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "name: ada") {
		t.Errorf("yaml out=%q", buf.String())
	}

	if err := Output(v, OutputOptions{Format: "xml", Writer: &buf}); err == nil {
		t.Error("want error for unknown format")
	}
}
