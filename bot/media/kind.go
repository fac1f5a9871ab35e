package media

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/m3rciful/arrbot/bot/arr"
	"github.com/m3rciful/arrbot/core/telegram/keyboard"
)

const maxCaption = 1024

// addSpec carries what a kind needs to build its add options.
type addSpec struct {
	Search         bool
	Monitored      bool
	RootFolderPath string
	QualityID      int
	Tags           []int
}

// kindProfile holds the kind-specific wording and payload shape.
type kindProfile struct {
	noun       string
	plural     string
	caption    func(arr.Item) string
	links      func(arr.Item) []keyboard.Button
	addOptions func(addSpec) map[string]any
}

func profileFor(k arr.Kind) kindProfile {
	switch k {
	case arr.KindSeries:
		return kindProfile{
			noun:    "Series",
			plural:  "series",
			caption: videoCaption,
			links: func(it arr.Item) []keyboard.Button {
				var out []keyboard.Button
				if it.TvdbID != 0 {
					out = append(out, keyboard.Link("TVDB", "https://www.thetvdb.com/?tab=series&id="+strconv.Itoa(it.TvdbID)))
				}
				if it.ImdbID != "" {
					out = append(out, keyboard.Link("IMDB", "https://imdb.com/title/"+it.ImdbID))
				}
				return out
			},
			addOptions: func(a addSpec) map[string]any {
				monitor := "all"
				if !a.Monitored {
					monitor = "none"
				}
				return map[string]any{
					"seasonFolder": true,
					"addOptions": map[string]any{
						"searchForMissingEpisodes": a.Search,
						"monitor":                  monitor,
					},
				}
			},
		}
	case arr.KindBook:
		return kindProfile{
			noun:    "Book",
			plural:  "books",
			caption: bookCaption,
			links: func(it arr.Item) []keyboard.Button {
				if len(it.Links) == 0 || it.Links[0].URL == "" {
					return nil
				}
				name := it.Links[0].Name
				if name == "" {
					name = "Link"
				}
				return []keyboard.Button{keyboard.Link(name, it.Links[0].URL)}
			},
			addOptions: func(a addSpec) map[string]any {
				tags := a.Tags
				if tags == nil {
					tags = []int{}
				}
				return map[string]any{
					"author": map[string]any{
						"qualityProfileId": a.QualityID,
						"rootFolderPath":   a.RootFolderPath,
						"monitored":        a.Monitored,
						"tags":             tags,
						"addOptions": map[string]any{
							"monitored":             a.Monitored,
							"searchForMissingBooks": false,
						},
					},
					"addOptions": map[string]any{
						"addType":          "manual",
						"searchForNewBook": a.Search,
					},
				}
			},
		}
	}
	return kindProfile{
		noun:    "Movie",
		plural:  "movies",
		caption: videoCaption,
		links: func(it arr.Item) []keyboard.Button {
			var out []keyboard.Button
			if it.TmdbID != 0 {
				out = append(out, keyboard.Link("TMDB", "https://www.themoviedb.org/movie/"+strconv.Itoa(it.TmdbID)))
			}
			if it.ImdbID != "" {
				out = append(out, keyboard.Link("IMDB", "https://imdb.com/title/"+it.ImdbID))
			}
			return out
		},
		addOptions: func(a addSpec) map[string]any {
			return map[string]any{"addOptions": map[string]any{"searchForMovie": a.Search}}
		},
	}
}

// videoCaption renders "Title (Year) 120min - Status" followed by the overview.
func videoCaption(it arr.Item) string {
	var b strings.Builder
	b.WriteString(it.Title)
	b.WriteString(" ")
	if it.Year != 0 && !strings.Contains(it.Title, strconv.Itoa(it.Year)) {
		fmt.Fprintf(&b, "(%d) ", it.Year)
	}
	if it.Runtime != 0 {
		fmt.Fprintf(&b, "%dmin ", it.Runtime)
	}
	if it.Status != "" {
		b.WriteString("- ")
		b.WriteString(capitalize(it.Status))
	}
	if it.Overview != "" {
		b.WriteString("\n\n")
		b.WriteString(it.Overview)
	}
	return truncate(strings.TrimSpace(b.String()), maxCaption)
}

func bookCaption(it arr.Item) string {
	var b strings.Builder
	b.WriteString(it.Title)
	if it.Year != 0 {
		fmt.Fprintf(&b, " (%d)", it.Year)
	}
	if it.Overview != "" {
		b.WriteString("\n\n")
		b.WriteString(it.Overview)
	}
	return truncate(b.String(), maxCaption)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
