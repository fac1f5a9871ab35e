package format

import "testing"

func TestEscapeV2(t *testing.T) {
	cases := map[string]string{
		"Dune.2021":          `Dune\.2021`,
		"a-b+c=d":            `a\-b\+c\=d`,
		"0123456789,/:;<":    "0123456789,/:;<",
		"_*[]()~`>#|{}!":     "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\|\\{\\}\\!",
		`back\slash`:         `back\\slash`,
		"plain text, no ops": "plain text, no ops",
	}
	for in, want := range cases {
		if got := EscapeV2(in); got != want {
			t.Errorf("EscapeV2(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEscapeMarkdownCode(t *testing.T) {
	got, err := EscapeMarkdown("[==|  ] 42.5%", MarkdownV2, "code")
	if err != nil || got != "[==|  ] 42.5%" {
		t.Fatalf("code entity must keep punctuation: %q %v", got, err)
	}
	got, _ = EscapeMarkdown("a`b\\c", MarkdownV2, "pre")
	if got != "a\\`b\\\\c" {
		t.Fatalf("unexpected pre escape %q", got)
	}
}

func TestEscapeMarkdownV1AndUnknown(t *testing.T) {
	if got, _ := EscapeMarkdown("a_b.c", MarkdownV1, ""); got != `a\_b.c` {
		t.Fatalf("unexpected v1 escape %q", got)
	}
	if _, err := EscapeMarkdown("x", 3, ""); err == nil {
		t.Fatalf("unknown version must fail")
	}
}
