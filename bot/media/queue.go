package media

import (
	"fmt"
	"math"
	"strings"

	"github.com/m3rciful/arrbot/bot/arr"
	"github.com/m3rciful/arrbot/core/telegram/format"
	"github.com/m3rciful/arrbot/core/telegram/keyboard"
)

const (
	// DefaultQueuePageSize is the number of records per queue page.
	DefaultQueuePageSize = 5
	// DefaultQueueWidth is the number of cells in a progress bar.
	DefaultQueueWidth = 20
)

// QueueState is the page a chat is looking at, kept under the "queue" sub-key.
type QueueState struct {
	Page int `json:"page"`
}

// QueueView renders download queue pages.
type QueueView struct {
	ns       string
	pageSize int
	width    int
}

// NewQueueView returns a view for the namespace. Non-positive sizes use the defaults.
func NewQueueView(ns string, pageSize, width int) QueueView {
	if pageSize <= 0 {
		pageSize = DefaultQueuePageSize
	}
	if width <= 0 {
		width = DefaultQueueWidth
	}
	return QueueView{ns: ns, pageSize: pageSize, width: width}
}

// PageSize returns the records per page.
func (v QueueView) PageSize() int { return v.pageSize }

// Pages returns the page count for total records, at least one.
func (v QueueView) Pages(total int) int {
	if total <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(v.pageSize)))
}

// Bar renders the progress of a record as "[====|    ] 42%".
func (v QueueView) Bar(frac float64) string {
	done := int(math.Floor(frac * float64(v.width)))
	return fmt.Sprintf("[%s|%s] %.0f%%", strings.Repeat("=", done), strings.Repeat(" ", v.width-done), frac*100)
}

// Text renders the page as MarkdownV2.
func (v QueueView) Text(p arr.QueuePage, page int) string {
	lines := []string{"*Queue*", ""}
	offset := page*v.pageSize + 1
	for i, r := range p.Records {
		title := truncate(r.Title, 2*v.width)
		lines = append(lines,
			fmt.Sprintf("%d\\. *%s*", offset+i, format.EscapeV2(title)),
			">`"+escapeCode(v.Bar(r.Progress()))+"`",
			fmt.Sprintf(">Status: _%s_ \\(_%s_\\)   Time left: _%s_",
				format.EscapeV2(orNA(r.Status)), format.EscapeV2(orDash(r.TrackedDownloadState)), format.EscapeV2(orNA(r.TimeLeft))),
		)
	}
	if len(p.Records) == 0 {
		lines = append(lines, "_No Entries_", "")
	}
	lines = append(lines, fmt.Sprintf("Page _%d_ of _%d_", page+1, v.Pages(p.TotalRecords)))
	return strings.Join(lines, "\n")
}

// Keyboard renders Prev / Refresh / Next for page.
func (v QueueView) Keyboard(p arr.QueuePage, page int) keyboard.Keyboard {
	row := keyboard.Row{}
	if page > 0 {
		row = append(row, keyboard.Action("⬅ Prev", v.clbk(page-1)))
	}
	row = append(row, keyboard.Action("🔄 Refresh", v.clbk(page)))
	if page < v.Pages(p.TotalRecords)-1 {
		row = append(row, keyboard.Action("Next ➡", v.clbk(page+1)))
	}
	return keyboard.Keyboard{row}
}

func (v QueueView) clbk(page int) string {
	return clbkFor(v.ns, "queue", page)
}

func escapeCode(s string) string {
	out, _ := format.EscapeMarkdown(s, format.MarkdownV2, "code")
	return out
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
