package media

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/m3rciful/arrbot/bot/arr"
	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/bot/service"
	"github.com/m3rciful/arrbot/core/telegram/callbacks"
	"github.com/m3rciful/arrbot/core/telegram/keyboard"
)

func clbkFor(ns string, args ...any) string {
	return callbacks.Encode(ns, args...)
}

func (m *Machine) clbk(args ...any) string {
	return clbkFor(m.ns, args...)
}

// Caption renders the text shown above the keyboard.
func (m *Machine) Caption(st State) string {
	item, ok := st.Item()
	if !ok {
		return "No " + m.profile.plural + " found"
	}
	if st.Menu == MenuEpisode && st.Episode != nil {
		ep := st.Episode
		var b strings.Builder
		fmt.Fprintf(&b, "%s - S%02dE%02d %s", item.Title, ep.SeasonNumber, ep.EpisodeNumber, ep.Title)
		if ep.AirDate != "" {
			fmt.Fprintf(&b, "\nAired: %s", ep.AirDate)
		}
		if ep.HasFile {
			b.WriteString("\nDownloaded")
		} else {
			b.WriteString("\nMissing")
		}
		if ep.Overview != "" {
			b.WriteString("\n\n")
			b.WriteString(ep.Overview)
		}
		return truncate(b.String(), maxCaption)
	}
	return m.profile.caption(item)
}

// Linkage describes the current view for an addon opened from it.
func (m *Machine) Linkage(st State) service.Linkage {
	l := service.Linkage{Host: m.ns, HostKind: m.kind, ReturnMenu: string(st.Menu), Return: []string{"goto"}}
	if st.Menu == MenuEpisode && st.Episode != nil {
		l.Return = []string{"episode", strconv.Itoa(st.Episode.SeasonNumber), strconv.Itoa(st.Episode.EpisodeNumber)}
	}
	return l
}

// Layout builds the keyboard template for st. Addon rows go between the
// navigation rows and the menu rows.
func (m *Machine) Layout(st State, level auth.Level) service.Layout {
	item, ok := st.Item()
	if !ok {
		return service.Layout{}.Slot().Rows(keyboard.Row{keyboard.Cancel(m.clbk("cancel"))})
	}
	inLibrary := item.InLibrary()
	allowEdit := level >= auth.Mod

	var nav []keyboard.Row
	var menu []keyboard.Row

	switch st.Menu {
	case MenuAdd:
		header := "=== Adding " + m.profile.noun + " ==="
		if inLibrary {
			header = "=== Editing " + m.profile.noun + " ==="
		}
		nav = []keyboard.Row{{keyboard.Label(header)}}
		menu = append(menu,
			keyboard.Row{keyboard.Action(fmt.Sprintf("Change Quality   (%s)", profileName(st.QualityProfile)), m.clbk("quality"))},
			keyboard.Row{keyboard.Action(fmt.Sprintf("Change Path   (%s)", folderPath(st.RootFolder)), m.clbk("path"))},
		)
		if m.kind == arr.KindSeries {
			menu = append(menu, keyboard.Row{keyboard.Action(fmt.Sprintf("Change Language   (%s)", profileName(st.LanguageProfile)), m.clbk("language"))})
		}
		menu = append(menu, keyboard.Row{keyboard.Action(fmt.Sprintf("Change Tags   (Total: %d)", len(st.Tags)), m.clbk("tags"))})

	case MenuTags:
		nav = []keyboard.Row{{keyboard.Label("=== Selecting Tags ===")}}
		for _, t := range m.opts.Tags {
			if slices.Contains(st.Tags, t.ID) {
				menu = append(menu, keyboard.Row{keyboard.Action("Remove "+t.Label, m.clbk("remtag", t.ID))})
			} else {
				menu = append(menu, keyboard.Row{keyboard.Action("Tag "+t.Label, m.clbk("addtag", t.ID))})
			}
		}
		if len(m.opts.Tags) == 0 {
			menu = append(menu, keyboard.Row{keyboard.Label("No options available")})
		}
		menu = append(menu, keyboard.Row{keyboard.Action("Done", m.clbk("addmenu"))})

	case MenuPath:
		nav = []keyboard.Row{{keyboard.Label("=== Selecting Root Folder ===")}}
		for _, f := range m.opts.RootFolders {
			menu = append(menu, keyboard.Row{keyboard.Action(f.Path, m.clbk("selectpath", f.ID))})
		}
		menu = orEmpty(menu)

	case MenuQuality:
		nav = []keyboard.Row{{keyboard.Label("=== Selecting Quality Profile ===")}}
		for _, p := range m.opts.Quality {
			menu = append(menu, keyboard.Row{keyboard.Action(p.Name, m.clbk("selectquality", p.ID))})
		}
		menu = orEmpty(menu)

	case MenuLanguage:
		nav = []keyboard.Row{{keyboard.Label("=== Selecting Language Profile ===")}}
		for _, p := range m.opts.Language {
			menu = append(menu, keyboard.Row{keyboard.Action(p.Name, m.clbk("selectlanguage", p.ID))})
		}
		menu = orEmpty(menu)

	case MenuSeasons:
		nav = []keyboard.Row{{keyboard.Label("=== Searching Seasons ===")}}
		var btns []keyboard.Button
		for _, s := range item.Seasons {
			label := fmt.Sprintf("Season %d", s.SeasonNumber)
			if slices.Contains(st.SearchedSeasons, s.SeasonNumber) {
				btns = append(btns, keyboard.Label("✅ "+label))
			} else {
				btns = append(btns, keyboard.Action("🔍 "+label, m.clbk("searchseason", s.SeasonNumber)))
			}
		}
		menu = orEmpty(keyboard.Chunk(btns, 3))

	case MenuSeasonList:
		nav = []keyboard.Row{{keyboard.Label("=== Seasons ===")}}
		var btns []keyboard.Button
		for _, s := range item.Seasons {
			label := fmt.Sprintf("Season %d", s.SeasonNumber)
			if s.Statistics != nil {
				label += fmt.Sprintf(" (%d/%d)", s.Statistics.EpisodeFileCount, s.Statistics.EpisodeCount)
			}
			btns = append(btns, keyboard.Action(label, m.clbk("episode_list", s.SeasonNumber)))
		}
		menu = orEmpty(keyboard.Chunk(btns, 2))

	case MenuEpisodeList:
		nav = []keyboard.Row{{keyboard.Label(fmt.Sprintf("=== Season %d ===", st.Season))}}
		var btns []keyboard.Button
		for _, ep := range st.Episodes {
			label := fmt.Sprintf("E%02d %s", ep.EpisodeNumber, truncate(ep.Title, 24))
			if ep.HasFile {
				label = "💾 " + label
			}
			btns = append(btns, keyboard.Action(label, m.clbk("episode", ep.SeasonNumber, ep.EpisodeNumber)))
		}
		menu = orEmpty(keyboard.Chunk(btns, 2))

	case MenuEpisode:
		if st.Episode != nil {
			nav = []keyboard.Row{{keyboard.Label(fmt.Sprintf("=== S%02dE%02d ===", st.Episode.SeasonNumber, st.Episode.EpisodeNumber))}}
		}

	default:
		if inLibrary {
			monitored, file := "Unmonitored", "Downloaded"
			if item.Monitored {
				monitored = "📺 Monitored"
			}
			if !item.HasFile {
				file = "💾 Missing"
			}
			menu = append(menu, keyboard.Row{keyboard.Label(monitored), keyboard.Label(file)})
		}
		row := keyboard.Row{}
		if st.Index > 0 {
			row = append(row, keyboard.Action("⬅ Prev", m.clbk("goto", st.Index-1)))
		}
		row = append(row, m.profile.links(item)...)
		if st.Index < len(st.Items)-1 {
			row = append(row, keyboard.Action("Next ➡", m.clbk("goto", st.Index+1)))
		}
		nav = []keyboard.Row{row}
	}

	return service.Layout{}.Rows(nav...).Slot().Rows(menu...).Rows(m.actions(st, item, level, allowEdit)...)
}

func (m *Machine) actions(st State, item arr.Item, level auth.Level, allowEdit bool) []keyboard.Row {
	var rows []keyboard.Row
	switch {
	case item.InLibrary() && allowEdit && st.Menu == MenuAdd:
		rows = append(rows,
			keyboard.Row{keyboard.Action("🗑 Remove", m.clbk("remove")), keyboard.Action("✅ Submit", m.clbk("add", "no-search"))},
			keyboard.Row{keyboard.Action("✅ + 🔍 Submit & Search", m.clbk("add", "search"))},
		)
	case item.InLibrary() && allowEdit && st.Menu == MenuNone:
		rows = append(rows, keyboard.Row{keyboard.Action("🗑 Remove", m.clbk("remove")), keyboard.Action("✏️ Edit", m.clbk("addmenu"))})
	case !item.InLibrary() && st.Menu == MenuNone:
		rows = append(rows, keyboard.Row{keyboard.Action("➕ Add", m.clbk("addmenu"))})
	case !item.InLibrary() && st.Menu == MenuAdd:
		rows = append(rows,
			keyboard.Row{keyboard.Action("📺 Monitor", m.clbk("add", "no-search")), keyboard.Action("🔍 Monitor & Search", m.clbk("add", "search"))},
			keyboard.Row{keyboard.Action("➕ Add unmonitored", m.clbk("add", "no-monitor"))},
		)
	}

	if m.kind == arr.KindSeries && item.InLibrary() && st.Menu == MenuNone {
		var extra keyboard.Row
		if allowEdit {
			extra = append(extra, keyboard.Action("🔍 Seasons", m.clbk("seasons")))
		}
		if level >= auth.Admin {
			extra = append(extra, keyboard.Action("📂 Browse", m.clbk("season_list")))
		}
		if len(extra) > 0 {
			rows = append(rows, extra)
		}
	}

	switch st.Menu {
	case MenuNone:
		rows = append(rows, keyboard.Row{keyboard.Cancel(m.clbk("cancel"))})
	case MenuEpisode:
		rows = append(rows, keyboard.Row{keyboard.Action("🔙 Back", m.clbk("episode_list", st.Season))})
	case MenuEpisodeList:
		rows = append(rows, keyboard.Row{keyboard.Action("🔙 Back", m.clbk("season_list"))})
	default:
		rows = append(rows, keyboard.Row{keyboard.Action("🔙 Back", m.clbk("goto"))})
	}
	return rows
}

// Keyboard composes the layout with the rows contributed by attached addons.
func (m *Machine) Keyboard(st State, level auth.Level, host *service.AddonHost) (keyboard.Keyboard, error) {
	var addon []keyboard.Row
	if item, ok := st.Item(); ok {
		view := service.HostView{Linkage: m.Linkage(st), Item: item, Episode: st.Episode, Level: level}
		addon = host.Rows(view)
	}
	return m.Layout(st, level).Compose(addon)
}

func orEmpty(rows []keyboard.Row) []keyboard.Row {
	if len(rows) == 0 {
		return []keyboard.Row{{keyboard.Label("No options available")}}
	}
	return rows
}

func profileName(p *arr.Profile) string {
	if p == nil || p.Name == "" {
		return "-"
	}
	return p.Name
}

func folderPath(f *arr.RootFolder) string {
	if f == nil || f.Path == "" {
		return "-"
	}
	return f.Path
}
