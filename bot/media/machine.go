package media

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"

	"github.com/m3rciful/arrbot/bot/arr"
	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/core/logger"
)

// Captions shared by every media kind.
const (
	DeniedCaption      = "You are missing the permissions for this operation."
	FailedCaption      = "Seems like something went wrong..."
	UnavailableCaption = "Service unavailable, try again later."
	CanceledCaption    = "Search canceled!"
)

// Backend is the media service API the machine drives.
type Backend interface {
	Lookup(ctx context.Context, term string) ([]arr.Item, error)
	Library(ctx context.Context) ([]arr.Item, error)
	Add(ctx context.Context, req arr.AddRequest) (arr.Item, error)
	Remove(ctx context.Context, id int64) error
	RootFolders(ctx context.Context) ([]arr.RootFolder, error)
	RootFolder(ctx context.Context, id int) (arr.RootFolder, error)
	QualityProfiles(ctx context.Context) ([]arr.Profile, error)
	QualityProfile(ctx context.Context, id int) (arr.Profile, error)
	LanguageProfiles(ctx context.Context) ([]arr.Profile, error)
	LanguageProfile(ctx context.Context, id int) (arr.Profile, error)
	Tags(ctx context.Context) ([]arr.Tag, error)
}

// SeriesBackend adds the season and episode calls of series managers.
type SeriesBackend interface {
	Episodes(ctx context.Context, seriesID int64, season int) ([]arr.Episode, error)
	SearchSeason(ctx context.Context, seriesID int64, season int) error
}

// Action is one decoded callback: the sub-command and its arguments.
type Action struct {
	Name string
	Args []string
}

// Outcome classifies a transition result.
type Outcome int

const (
	// OutcomeRender persists State and renders it.
	OutcomeRender Outcome = iota
	// OutcomeAck acknowledges without any change.
	OutcomeAck
	// OutcomeDenied re-renders the unchanged state with DeniedCaption.
	OutcomeDenied
	// OutcomeFailed re-renders the unchanged state with Caption and keeps the session.
	OutcomeFailed
	// OutcomeTerminal clears the session and shows Caption.
	OutcomeTerminal
)

// Result is the output of a transition.
type Result struct {
	State   State
	Outcome Outcome
	Redraw  bool
	Caption string
	Notice  string
}

// mutating transitions change backend data when the item is already in the library.
var mutating = map[string]bool{
	"addtag":         true,
	"remtag":         true,
	"selectpath":     true,
	"selectquality":  true,
	"selectlanguage": true,
	"add":            true,
	"searchseason":   true,
}

// adminOnly transitions browse library structure.
var adminOnly = map[string]bool{
	"season_list":  true,
	"episode_list": true,
	"episode":      true,
}

// Machine computes conversation transitions for one media kind.
type Machine struct {
	ns      string
	kind    arr.Kind
	profile kindProfile
	backend Backend
	opts    Options
}

// NewMachine binds a kind to its callback namespace, backend and cached selection options.
func NewMachine(ns string, kind arr.Kind, backend Backend, opts Options) *Machine {
	return &Machine{ns: ns, kind: kind, profile: profileFor(kind), backend: backend, opts: opts}
}

// Options returns the cached selection options.
func (m *Machine) Options() Options { return m.opts }

// LoadOptions fetches the selection options. A failing list is logged and left empty.
func LoadOptions(ctx context.Context, b Backend) Options {
	var opts Options
	var err error
	if opts.RootFolders, err = b.RootFolders(ctx); err != nil {
		logOptionsFailure(ctx, "rootfolder", err)
	}
	if opts.Quality, err = b.QualityProfiles(ctx); err != nil {
		logOptionsFailure(ctx, "qualityprofile", err)
	}
	if opts.Language, err = b.LanguageProfiles(ctx); err != nil {
		logOptionsFailure(ctx, "languageprofile", err)
	}
	if opts.Tags, err = b.Tags(ctx); err != nil {
		logOptionsFailure(ctx, "tag", err)
	}
	return opts
}

func logOptionsFailure(ctx context.Context, what string, err error) {
	logger.Warn(ctx, "arr", "arr.options",
		slog.String("status", "fail"),
		slog.String("op", what),
		slog.String("err", err.Error()),
	)
}

func render(st State) Result { return Result{State: st, Outcome: OutcomeRender} }

func ack(st State, notice string) Result {
	return Result{State: st, Outcome: OutcomeAck, Notice: notice}
}

func failed(st State, err error) Result {
	caption := FailedCaption
	if errors.Is(err, arr.ErrUnavailable) {
		caption = UnavailableCaption
	}
	return Result{State: st, Outcome: OutcomeFailed, Caption: caption}
}

func intArg(args []string, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	n, err := strconv.Atoi(args[i])
	return n, err == nil
}

// Transition applies act to st on behalf of a user at level. The only side
// effects are the explicit backend calls of add, remove, select* for
// unknown ids, searchseason and the episode views.
func (m *Machine) Transition(ctx context.Context, st State, level auth.Level, act Action) Result {
	if act.Name == "cancel" {
		return Result{Outcome: OutcomeTerminal, Caption: CanceledCaption}
	}
	item, ok := st.Item()
	if !ok {
		return ack(st, "No "+m.profile.plural+" found")
	}
	if mutating[act.Name] && item.InLibrary() && level < auth.Mod {
		return Result{State: st, Outcome: OutcomeDenied}
	}
	if adminOnly[act.Name] && level < auth.Admin {
		return Result{State: st, Outcome: OutcomeDenied}
	}

	switch act.Name {
	case "goto":
		if len(act.Args) == 0 {
			st.Menu = MenuNone
			return render(st)
		}
		idx, ok := intArg(act.Args, 0)
		if !ok || idx < 0 || idx >= len(st.Items) {
			return ack(st, "")
		}
		res := render(seed(st, m.opts, idx))
		res.Redraw = true
		return res

	case "addmenu":
		st.Menu = MenuAdd
		return render(st)
	case "path":
		st.Menu = MenuPath
		return render(st)
	case "quality":
		st.Menu = MenuQuality
		return render(st)
	case "tags":
		st.Menu = MenuTags
		return render(st)
	case "language":
		if m.kind != arr.KindSeries {
			return ack(st, "")
		}
		st.Menu = MenuLanguage
		return render(st)

	case "selectpath":
		id, ok := intArg(act.Args, 0)
		if !ok {
			return ack(st, "")
		}
		rf, found := m.opts.rootFolder(id)
		if !found {
			var err error
			if rf, err = m.backend.RootFolder(ctx, id); err != nil {
				return failed(st, err)
			}
		}
		st.RootFolder = &rf
		st.Menu = MenuAdd
		return render(st)
	case "selectquality":
		id, ok := intArg(act.Args, 0)
		if !ok {
			return ack(st, "")
		}
		p, found := findProfile(m.opts.Quality, id)
		if !found {
			var err error
			if p, err = m.backend.QualityProfile(ctx, id); err != nil {
				return failed(st, err)
			}
		}
		st.QualityProfile = &p
		st.Menu = MenuAdd
		return render(st)
	case "selectlanguage":
		id, ok := intArg(act.Args, 0)
		if !ok || m.kind != arr.KindSeries {
			return ack(st, "")
		}
		p, found := findProfile(m.opts.Language, id)
		if !found {
			var err error
			if p, err = m.backend.LanguageProfile(ctx, id); err != nil {
				return failed(st, err)
			}
		}
		st.LanguageProfile = &p
		st.Menu = MenuAdd
		return render(st)

	case "addtag", "remtag":
		id, ok := intArg(act.Args, 0)
		if !ok {
			return ack(st, "")
		}
		if act.Name == "addtag" {
			st.Tags = withTag(st.Tags, id)
		} else {
			st.Tags = withoutTag(st.Tags, id)
		}
		return render(st)

	case "add":
		return m.add(ctx, st, item, act.Args)
	case "remove":
		return m.remove(ctx, st, item, level)

	case "seasons", "searchseason", "season_list", "episode_list", "episode":
		if m.kind != arr.KindSeries {
			return ack(st, "")
		}
		return m.series(ctx, st, item, act)
	}
	return ack(st, "")
}

func (m *Machine) add(ctx context.Context, st State, item arr.Item, args []string) Result {
	mode := "no-search"
	if len(args) > 0 {
		mode = args[0]
	}
	spec := addSpec{
		Search:    mode == "search",
		Monitored: mode != "no-monitor",
		Tags:      slices.Clone(st.Tags),
	}
	if st.RootFolder != nil {
		spec.RootFolderPath = st.RootFolder.Path
	}
	if st.QualityProfile != nil {
		spec.QualityID = st.QualityProfile.ID
	}
	req := arr.AddRequest{
		Item:             item,
		RootFolderPath:   spec.RootFolderPath,
		QualityProfileID: spec.QualityID,
		Tags:             spec.Tags,
		Monitored:        spec.Monitored,
		Options:          m.profile.addOptions(spec),
	}
	if st.LanguageProfile != nil {
		req.LanguageProfileID = st.LanguageProfile.ID
	}
	if _, err := m.backend.Add(ctx, req); err != nil {
		logger.Warn(ctx, "service", "media.add",
			slog.String("status", "fail"),
			slog.String("kind", string(m.kind)),
			slog.String("err", err.Error()),
		)
		return failed(st, err)
	}
	verb := " added!"
	if item.InLibrary() {
		verb = " updated!"
	}
	return Result{Outcome: OutcomeTerminal, Caption: m.profile.noun + verb}
}

func (m *Machine) remove(ctx context.Context, st State, item arr.Item, level auth.Level) Result {
	if level < auth.Mod {
		return Result{State: st, Outcome: OutcomeDenied}
	}
	if !item.InLibrary() {
		return Result{Outcome: OutcomeTerminal, Caption: m.profile.noun + " is not in the library"}
	}
	if err := m.backend.Remove(ctx, item.ID); err != nil {
		logger.Warn(ctx, "service", "media.remove",
			slog.String("status", "fail"),
			slog.String("kind", string(m.kind)),
			slog.Int64("item_id", item.ID),
			slog.String("err", err.Error()),
		)
		return Result{Outcome: OutcomeTerminal, Caption: FailedCaption}
	}
	return Result{Outcome: OutcomeTerminal, Caption: m.profile.noun + " removed!"}
}

func (m *Machine) series(ctx context.Context, st State, item arr.Item, act Action) Result {
	sb, _ := m.backend.(SeriesBackend)
	if act.Name != "seasons" && (sb == nil || !item.InLibrary()) {
		return ack(st, "Add the series first")
	}

	switch act.Name {
	case "seasons":
		st.Menu = MenuSeasons
		return render(st)

	case "searchseason":
		n, ok := intArg(act.Args, 0)
		if !ok {
			return ack(st, "")
		}
		if !slices.Contains(st.SearchedSeasons, n) {
			if err := sb.SearchSeason(ctx, item.ID, n); err != nil {
				return failed(st, err)
			}
			st.SearchedSeasons = withSeason(st.SearchedSeasons, n)
		}
		st.Menu = MenuSeasons
		return render(st)

	case "season_list":
		st.Menu = MenuSeasonList
		st.Episode = nil
		return render(st)

	case "episode_list":
		season := st.Season
		if n, ok := intArg(act.Args, 0); ok {
			season = n
		}
		eps, err := sb.Episodes(ctx, item.ID, season)
		if err != nil {
			return failed(st, err)
		}
		st.Season = season
		st.Episodes = eps
		st.Episode = nil
		st.Menu = MenuEpisodeList
		return render(st)

	case "episode":
		season, ok1 := intArg(act.Args, 0)
		number, ok2 := intArg(act.Args, 1)
		if !ok1 || !ok2 {
			return ack(st, "")
		}
		eps := st.Episodes
		if season != st.Season || len(eps) == 0 {
			var err error
			if eps, err = sb.Episodes(ctx, item.ID, season); err != nil {
				return failed(st, err)
			}
		}
		for i := range eps {
			if eps[i].SeasonNumber == season && eps[i].EpisodeNumber == number {
				ep := eps[i]
				st.Season = season
				st.Episodes = eps
				st.Episode = &ep
				st.Menu = MenuEpisode
				return render(st)
			}
		}
		return ack(st, "Episode not found")
	}
	return ack(st, "")
}
