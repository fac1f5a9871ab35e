package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

const mdV2Specials = "_*[]()~`>#+-=|{}.!\\"

var (
	mdV1Re = regexp.MustCompile("([_*`\\[])")
	mdV2Re = regexp.MustCompile("([" + classOf(mdV2Specials) + "])")
	// inside pre and code entities only the backtick and the backslash are special
	mdV2CodeRe = regexp.MustCompile("([`\\\\])")
)

// classOf escapes every rune of set for use inside a character class, so
// "+-=" stays three literals instead of a range.
func classOf(set string) string {
	var b strings.Builder
	for _, r := range set {
		b.WriteByte('\\')
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeMarkdown escapes special characters for MarkdownV1 or V2. For V2 an
// entityType of "pre" or "code" escapes only what those entities require.
func EscapeMarkdown(text string, version int, entityType string) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		if entityType == "pre" || entityType == "code" {
			return mdV2CodeRe.ReplaceAllString(text, `\$1`), nil
		}
		return mdV2Re.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// EscapeV2 is EscapeMarkdown for plain MarkdownV2 text.
func EscapeV2(text string) string {
	out, _ := EscapeMarkdown(text, MarkdownV2, "")
	return out
}
