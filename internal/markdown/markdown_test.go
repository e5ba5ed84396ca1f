package markdown

import (
	"strings"
	"testing"
)

func TestToHTMLStripsScripts(t *testing.T) {
	out := string(ToHTML(`hello <script>alert("x")</script>world`))
	if strings.Contains(out, "<script") {
		t.Fatalf("script survived sanitization: %q", out)
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "world") {
		t.Fatalf("text content lost: %q", out)
	}
}

func TestToHTMLParagraphsAndLineBreaks(t *testing.T) {
	out := string(ToHTML("first line\nsecond line\n\nnext paragraph"))
	want := "<p>first line<br>second line</p><p>next paragraph</p>"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestToHTMLNormalizesCRLF(t *testing.T) {
	out := string(ToHTML("a\r\n\r\nb"))
	if out != "<p>a</p><p>b</p>" {
		t.Fatalf("got %q", out)
	}
}

func TestToHTMLKeepsInlineMarkup(t *testing.T) {
	out := string(ToHTML("built <strong>fast</strong> systems"))
	if !strings.Contains(out, "<strong>fast</strong>") {
		t.Fatalf("inline markup lost: %q", out)
	}
}

func TestToHTMLEmptyInput(t *testing.T) {
	if out := string(ToHTML("  \n\n  ")); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestTextareaInput(t *testing.T) {
	if got := TextareaInput("a\r\nb"); got != "a\nb" {
		t.Fatalf("got %q", got)
	}
}
