package media

import (
	"slices"
	"strings"

	"github.com/m3rciful/arrbot/bot/arr"
)

// Menu is the sub-state deciding which keyboard and caption are rendered.
type Menu string

const (
	MenuNone        Menu = ""
	MenuAdd         Menu = "add"
	MenuPath        Menu = "path"
	MenuQuality     Menu = "quality"
	MenuLanguage    Menu = "language"
	MenuTags        Menu = "tags"
	MenuSeasons     Menu = "seasons"
	MenuSeasonList  Menu = "season_list"
	MenuEpisodeList Menu = "episode_list"
	MenuEpisode     Menu = "episode"
)

// State is one conversation. Transitions return a new value and never
// modify the slices of the value they were given.
type State struct {
	Items           []arr.Item      `json:"items"`
	Index           int             `json:"index"`
	Menu            Menu            `json:"menu,omitempty"`
	RootFolder      *arr.RootFolder `json:"root_folder,omitempty"`
	QualityProfile  *arr.Profile    `json:"quality_profile,omitempty"`
	LanguageProfile *arr.Profile    `json:"language_profile,omitempty"`
	Tags            []int           `json:"tags,omitempty"`
	SearchedSeasons []int           `json:"searched_seasons,omitempty"`
	Season          int             `json:"season,omitempty"`
	Episodes        []arr.Episode   `json:"episodes,omitempty"`
	Episode         *arr.Episode    `json:"episode,omitempty"`
}

// Item returns the item under the cursor.
func (s State) Item() (arr.Item, bool) {
	if s.Index < 0 || s.Index >= len(s.Items) {
		return arr.Item{}, false
	}
	return s.Items[s.Index], true
}

// Options are the backend choices offered in selection menus.
type Options struct {
	RootFolders []arr.RootFolder
	Quality     []arr.Profile
	Language    []arr.Profile
	Tags        []arr.Tag
}

func (o Options) rootFolder(id int) (arr.RootFolder, bool) {
	for _, f := range o.RootFolders {
		if f.ID == id {
			return f, true
		}
	}
	return arr.RootFolder{}, false
}

func findProfile(list []arr.Profile, id int) (arr.Profile, bool) {
	for _, p := range list {
		if p.ID == id {
			return p, true
		}
	}
	return arr.Profile{}, false
}

// seed sets the cursor to idx and derives default selections for that item:
// the first root folder that prefixes the suggested folder, the profiles the
// item already uses, and the item's own tags. Each falls back to the first
// configured option.
func seed(s State, opts Options, idx int) State {
	s.Index = idx
	s.Menu = MenuNone
	s.RootFolder, s.QualityProfile, s.LanguageProfile, s.Tags = nil, nil, nil, nil
	s.Season, s.Episodes, s.Episode, s.SearchedSeasons = 0, nil, nil, nil

	item, ok := s.Item()
	if !ok {
		return s
	}
	if len(opts.RootFolders) > 0 {
		rf := opts.RootFolders[0]
		folder := item.SuggestedFolder()
		for _, f := range opts.RootFolders {
			if folder != "" && f.Path != "" && strings.HasPrefix(folder, f.Path) {
				rf = f
				break
			}
		}
		s.RootFolder = &rf
	}
	if len(opts.Quality) > 0 {
		p, ok := findProfile(opts.Quality, item.QualityProfileID)
		if !ok {
			p = opts.Quality[0]
		}
		s.QualityProfile = &p
	}
	if len(opts.Language) > 0 {
		p, ok := findProfile(opts.Language, item.LanguageProfileID)
		if !ok {
			p = opts.Language[0]
		}
		s.LanguageProfile = &p
	}
	if len(item.Tags) > 0 {
		s.Tags = slices.Clone(item.Tags)
	}
	return s
}

// Init builds the state for a fresh result list.
func Init(items []arr.Item, opts Options) State {
	return seed(State{Items: items}, opts, 0)
}

func withTag(tags []int, id int) []int {
	if slices.Contains(tags, id) {
		return tags
	}
	out := make([]int, 0, len(tags)+1)
	out = append(out, tags...)
	return append(out, id)
}

func withoutTag(tags []int, id int) []int {
	out := make([]int, 0, len(tags))
	for _, t := range tags {
		if t != id {
			out = append(out, t)
		}
	}
	return out
}

func withSeason(seasons []int, n int) []int {
	if slices.Contains(seasons, n) {
		return seasons
	}
	out := make([]int, 0, len(seasons)+1)
	out = append(out, seasons...)
	return append(out, n)
}
