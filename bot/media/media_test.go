package media

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/m3rciful/arrbot/bot/arr"
	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/bot/service"
	"github.com/m3rciful/arrbot/core/session"
	"github.com/m3rciful/arrbot/core/telegram/callbacks"
	"github.com/m3rciful/arrbot/core/telegram/keyboard"
)

type fakeBackend struct {
	items    []arr.Item
	library  []arr.Item
	addErr   error
	adds     []arr.AddRequest
	removes  []int64
	searched []int
	episodes []arr.Episode
}

func (f *fakeBackend) Lookup(context.Context, string) ([]arr.Item, error) { return f.items, nil }
func (f *fakeBackend) Library(context.Context) ([]arr.Item, error)        { return f.library, nil }
func (f *fakeBackend) Add(_ context.Context, req arr.AddRequest) (arr.Item, error) {
	f.adds = append(f.adds, req)
	if f.addErr != nil {
		return arr.Item{}, f.addErr
	}
	return req.Item, nil
}
func (f *fakeBackend) Remove(_ context.Context, id int64) error {
	f.removes = append(f.removes, id)
	return nil
}
func (f *fakeBackend) RootFolders(context.Context) ([]arr.RootFolder, error) { return nil, nil }
func (f *fakeBackend) RootFolder(_ context.Context, id int) (arr.RootFolder, error) {
	return arr.RootFolder{ID: id, Path: "/srv/other"}, nil
}
func (f *fakeBackend) QualityProfiles(context.Context) ([]arr.Profile, error) { return nil, nil }
func (f *fakeBackend) QualityProfile(_ context.Context, id int) (arr.Profile, error) {
	return arr.Profile{}, arr.ErrNotFound
}
func (f *fakeBackend) LanguageProfiles(context.Context) ([]arr.Profile, error) { return nil, nil }
func (f *fakeBackend) LanguageProfile(context.Context, int) (arr.Profile, error) {
	return arr.Profile{}, arr.ErrNotFound
}
func (f *fakeBackend) Tags(context.Context) ([]arr.Tag, error) { return nil, nil }
func (f *fakeBackend) Episodes(_ context.Context, _ int64, season int) ([]arr.Episode, error) {
	var out []arr.Episode
	for _, e := range f.episodes {
		if e.SeasonNumber == season {
			out = append(out, e)
		}
	}
	return out, nil
}
func (f *fakeBackend) SearchSeason(_ context.Context, _ int64, season int) error {
	f.searched = append(f.searched, season)
	return nil
}

var testOptions = Options{
	RootFolders: []arr.RootFolder{{ID: 1, Path: "/srv/movies"}, {ID: 2, Path: "/srv/kids"}},
	Quality:     []arr.Profile{{ID: 4, Name: "HD"}, {ID: 7, Name: "Ultra-HD"}},
	Tags:        []arr.Tag{{ID: 1, Label: "family"}, {ID: 2, Label: "4k"}},
}

func inception() []arr.Item {
	return []arr.Item{
		{Title: "Inception", Year: 2010, TmdbID: 27205, FolderName: "/srv/movies/Inception (2010)", RemotePoster: "https://img/1.jpg"},
		{Title: "Inception: The Cobol Job", Year: 2010, FolderName: "/srv/kids/Cobol", QualityProfileID: 7, Tags: []int{2}},
		{ID: 42, Title: "Inception Making Of", Year: 2011, Monitored: true},
	}
}

type harness struct {
	backend *fakeBackend
	store   session.Store
	media   *Media
}

func newHarness(t *testing.T, kind arr.Kind, items []arr.Item) harness {
	t.Helper()
	b := &fakeBackend{items: items}
	store := session.NewMemoryStore()
	m, err := New(Config{
		Name:     "Radarr",
		Kind:     kind,
		Commands: []string{"movie"},
		Backend:  b,
		Sessions: store,
		Options:  testOptions,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return harness{backend: b, store: store, media: m}
}

func (h harness) press(t *testing.T, level auth.Level, name string, args ...string) service.Response {
	t.Helper()
	resp, err := h.media.transition(context.Background(), service.Event{ChatID: 9, Callback: true, Name: name, Args: args, Level: level})
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return resp
}

func (h harness) state(t *testing.T) (State, bool) {
	t.Helper()
	st, ok, err := h.media.states.Load(context.Background(), session.NewKey("movie", 9))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return st, ok
}

func TestSearchThenGotoReseeds(t *testing.T) {
	h := newHarness(t, arr.KindMovie, inception())
	resp, err := h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"Inception"}, Level: auth.User})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.Mode != service.ModeReply || resp.Photo != "https://img/1.jpg" {
		t.Fatalf("search must send the first poster, got %+v", resp)
	}
	st, ok := h.state(t)
	if !ok || st.Index != 0 || st.Menu != MenuNone || len(st.Items) != 3 {
		t.Fatalf("unexpected init state %+v", st)
	}
	if st.RootFolder == nil || st.RootFolder.ID != 1 || st.QualityProfile.ID != 4 {
		t.Fatalf("init must seed selections for item 0, got %+v %+v", st.RootFolder, st.QualityProfile)
	}

	resp = h.press(t, auth.User, "goto", "1")
	if resp.Mode != service.ModeRedraw {
		t.Fatalf("goto with an index must redraw, got %v", resp.Mode)
	}
	st, _ = h.state(t)
	if st.Index != 1 || st.RootFolder.ID != 2 || st.QualityProfile.ID != 7 || !reflect.DeepEqual(st.Tags, []int{2}) {
		t.Fatalf("selections must be recomputed for item 1, got %+v", st)
	}
	if _, ok := resp.Keyboard.Find("⬅ Prev"); !ok {
		t.Fatalf("prev button missing: %+v", resp.Keyboard)
	}
	if _, ok := resp.Keyboard.Find("Next ➡"); !ok {
		t.Fatalf("next button missing: %+v", resp.Keyboard)
	}
}

func TestGotoOutOfRangeIsAckOnly(t *testing.T) {
	h := newHarness(t, arr.KindMovie, inception())
	_, _ = h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"x"}, Level: auth.User})
	for _, idx := range []string{"3", "-1", "abc"} {
		if resp := h.press(t, auth.User, "goto", idx); resp.Mode != service.ModeAck {
			t.Fatalf("goto %s must only ack, got %v", idx, resp.Mode)
		}
	}
	st, _ := h.state(t)
	if st.Index != 0 {
		t.Fatalf("cursor moved to %d", st.Index)
	}
}

func TestQualitySelection(t *testing.T) {
	h := newHarness(t, arr.KindMovie, inception())
	_, _ = h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"x"}, Level: auth.User})

	h.press(t, auth.User, "addmenu")
	resp := h.press(t, auth.User, "quality")
	st, _ := h.state(t)
	if st.Menu != MenuQuality {
		t.Fatalf("expected quality menu, got %q", st.Menu)
	}
	if _, ok := resp.Keyboard.Find("Ultra-HD"); !ok {
		t.Fatalf("quality options missing: %+v", resp.Keyboard)
	}
	h.press(t, auth.User, "selectquality", "7")
	st, _ = h.state(t)
	if st.Menu != MenuAdd || st.QualityProfile == nil || st.QualityProfile.ID != 7 {
		t.Fatalf("unexpected state after selectquality: %+v", st)
	}

	resp = h.press(t, auth.User, "selectquality", "99")
	if resp.Caption != FailedCaption {
		t.Fatalf("unknown profile must fail visibly, got %q", resp.Caption)
	}
}

func TestAddFailureKeepsSessionForRetry(t *testing.T) {
	h := newHarness(t, arr.KindMovie, inception())
	h.backend.addErr = errors.New("boom")
	_, _ = h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"x"}, Level: auth.User})

	resp := h.press(t, auth.User, "add", "search")
	if resp.Caption != FailedCaption || resp.Mode != service.ModeRepaint {
		t.Fatalf("failed add must repaint with the failure caption, got %+v", resp)
	}
	if _, ok := h.state(t); !ok {
		t.Fatalf("failed add must keep the session")
	}

	h.backend.addErr = nil
	resp = h.press(t, auth.User, "add", "search")
	if resp.Mode != service.ModeClear || resp.Caption != "Movie added!" {
		t.Fatalf("retry must succeed, got %+v", resp)
	}
	if _, ok := h.state(t); ok {
		t.Fatalf("successful add must clear the session")
	}
	last := h.backend.adds[len(h.backend.adds)-1]
	if last.RootFolderPath != "/srv/movies" || last.QualityProfileID != 4 || !last.Monitored {
		t.Fatalf("unexpected add request %+v", last)
	}
	if opts, _ := last.Options["addOptions"].(map[string]any); opts["searchForMovie"] != true {
		t.Fatalf("search flag not forwarded: %+v", last.Options)
	}
}

func TestAddTimeoutShowsUnavailable(t *testing.T) {
	h := newHarness(t, arr.KindMovie, inception())
	h.backend.addErr = arr.ErrUnavailable
	_, _ = h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"x"}, Level: auth.User})
	if resp := h.press(t, auth.User, "add"); resp.Caption != UnavailableCaption {
		t.Fatalf("unexpected caption %q", resp.Caption)
	}
}

func TestCancelClearsSession(t *testing.T) {
	h := newHarness(t, arr.KindMovie, inception())
	_, _ = h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"x"}, Level: auth.User})
	resp := h.press(t, auth.User, "cancel")
	if resp.Mode != service.ModeClear || resp.Caption != CanceledCaption {
		t.Fatalf("unexpected cancel response %+v", resp)
	}
	if _, ok := h.state(t); ok {
		t.Fatalf("cancel must clear the session")
	}
	if resp := h.press(t, auth.User, "cancel"); resp.Mode != service.ModeClear {
		t.Fatalf("cancel without a session must still clear, got %v", resp.Mode)
	}
}

func TestRemoveOutsideLibraryClears(t *testing.T) {
	h := newHarness(t, arr.KindMovie, inception())
	_, _ = h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"x"}, Level: auth.User})
	h.press(t, auth.User, "goto", "0")

	resp := h.press(t, auth.Mod, "remove")
	if resp.Mode != service.ModeClear || resp.Caption != "Movie is not in the library" {
		t.Fatalf("remove outside the library must end the conversation, got %+v", resp)
	}
	if _, ok := h.state(t); ok {
		t.Fatalf("remove must clear the session")
	}
	if len(h.backend.removes) != 0 {
		t.Fatalf("nothing to remove, got %v", h.backend.removes)
	}
}

func TestRemovePermissionBoundaryAndIdempotence(t *testing.T) {
	h := newHarness(t, arr.KindMovie, inception())
	_, _ = h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"x"}, Level: auth.User})
	h.press(t, auth.User, "goto", "2")

	resp := h.press(t, auth.User, "remove")
	if resp.Caption != DeniedCaption || resp.Mode != service.ModeRepaint {
		t.Fatalf("user must be denied, got %+v", resp)
	}
	if _, ok := h.state(t); !ok {
		t.Fatalf("denial must keep the session")
	}
	if len(h.backend.removes) != 0 {
		t.Fatalf("denied remove reached the backend")
	}

	resp = h.press(t, auth.Mod, "remove")
	if resp.Mode != service.ModeClear || resp.Caption != "Movie removed!" {
		t.Fatalf("mod remove must succeed, got %+v", resp)
	}
	if _, ok := h.state(t); ok {
		t.Fatalf("remove must clear the session")
	}
	if resp := h.press(t, auth.Mod, "remove"); resp.Mode != service.ModeAck {
		t.Fatalf("second remove must be a no-op ack, got %+v", resp)
	}
	if len(h.backend.removes) != 1 || h.backend.removes[0] != 42 {
		t.Fatalf("unexpected removes %v", h.backend.removes)
	}
}

func TestEditingLibraryItemNeedsMod(t *testing.T) {
	h := newHarness(t, arr.KindMovie, inception())
	_, _ = h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"x"}, Level: auth.User})
	h.press(t, auth.User, "goto", "2")
	if resp := h.press(t, auth.User, "addtag", "1"); resp.Caption != DeniedCaption {
		t.Fatalf("tagging a library item as user must be denied, got %q", resp.Caption)
	}
	if resp := h.press(t, auth.Mod, "addtag", "1"); resp.Caption == DeniedCaption {
		t.Fatalf("mod must be allowed to edit")
	}
}

func TestTransitionIsPure(t *testing.T) {
	m := NewMachine("movie", arr.KindMovie, &fakeBackend{}, testOptions)
	st := Init(inception(), testOptions)
	st.Tags = []int{1}
	before := append([]int(nil), st.Tags...)

	for _, act := range []Action{{Name: "addtag", Args: []string{"2"}}, {Name: "goto", Args: []string{"1"}}, {Name: "tags"}, {Name: "remtag", Args: []string{"1"}}} {
		a := m.Transition(context.Background(), st, auth.User, act)
		b := m.Transition(context.Background(), st, auth.User, act)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("%s is not deterministic:\n%+v\n%+v", act.Name, a, b)
		}
	}
	if !reflect.DeepEqual(st.Tags, before) {
		t.Fatalf("input state was mutated: %v", st.Tags)
	}
	res := m.Transition(context.Background(), st, auth.User, Action{Name: "addtag", Args: []string{"1"}})
	if !reflect.DeepEqual(res.State.Tags, []int{1}) {
		t.Fatalf("addtag must have set semantics, got %v", res.State.Tags)
	}
}

func TestEmptyResults(t *testing.T) {
	h := newHarness(t, arr.KindMovie, nil)
	resp, err := h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"nothing"}, Level: auth.User})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.Caption != "No movies found" || resp.Photo != "" {
		t.Fatalf("unexpected empty response %+v", resp)
	}
	if _, ok := resp.Keyboard.Find("❌ Cancel"); !ok {
		t.Fatalf("empty results must offer cancel")
	}
	if r := h.press(t, auth.User, "goto", "0"); r.Mode != service.ModeAck {
		t.Fatalf("navigation on empty results must ack, got %v", r.Mode)
	}
}

func TestSeasonSearchIsIdempotentAndBrowseNeedsAdmin(t *testing.T) {
	show := arr.Item{ID: 5, Title: "Dark", Seasons: []arr.Season{{SeasonNumber: 1}, {SeasonNumber: 2}}}
	h := newHarness(t, arr.KindSeries, []arr.Item{show})
	h.backend.episodes = []arr.Episode{{ID: 100, SeasonNumber: 1, EpisodeNumber: 1, Title: "Secrets"}}
	_, _ = h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"dark"}, Level: auth.Mod})

	h.press(t, auth.Mod, "seasons")
	h.press(t, auth.Mod, "searchseason", "1")
	resp := h.press(t, auth.Mod, "searchseason", "1")
	if len(h.backend.searched) != 1 {
		t.Fatalf("season search must not re-trigger, calls=%v", h.backend.searched)
	}
	if _, ok := resp.Keyboard.Find("✅ Season 1"); !ok {
		t.Fatalf("searched season must be marked: %+v", resp.Keyboard)
	}

	if resp := h.press(t, auth.Mod, "season_list"); resp.Caption != DeniedCaption {
		t.Fatalf("browsing must need admin, got %q", resp.Caption)
	}
	h.press(t, auth.Admin, "episode_list", "1")
	resp = h.press(t, auth.Admin, "episode", "1", "1")
	if !strings.Contains(resp.Caption, "S01E01 Secrets") {
		t.Fatalf("unexpected episode caption %q", resp.Caption)
	}
	back, ok := resp.Keyboard.Find("🔙 Back")
	if !ok || back.Data != callbacks.Encode("movie", "episode_list", 1) {
		t.Fatalf("episode back must return to the list, got %+v", back)
	}
}

type stubAddon struct{}

func (stubAddon) Supports(k arr.Kind) bool { return k == arr.KindMovie }
func (stubAddon) AddonButtons(v service.HostView) []keyboard.Button {
	if !v.Item.InLibrary() {
		return nil
	}
	return []keyboard.Button{keyboard.Action("Subtitles", callbacks.Encode("subs", "open", v.Linkage.Host))}
}

func TestAddonRowsFillTheSlot(t *testing.T) {
	h := newHarness(t, arr.KindMovie, inception())
	h.media.Service().Host.Attach(stubAddon{})
	_, _ = h.media.search(context.Background(), service.Event{ChatID: 9, Args: []string{"x"}, Level: auth.User})

	resp := h.press(t, auth.User, "goto", "2")
	kb := resp.Keyboard
	if len(kb) < 2 || kb[1][0].Text != "Subtitles" {
		t.Fatalf("addon row must follow the navigation row, got %+v", kb)
	}
	resp = h.press(t, auth.User, "goto", "0")
	if _, ok := resp.Keyboard.Find("Subtitles"); ok {
		t.Fatalf("addon must not appear for items outside the library")
	}
}

func TestQueueView(t *testing.T) {
	v := NewQueueView("movie", 2, 10)
	if got := v.Bar(0.42); got != "[====|      ] 42%" {
		t.Fatalf("unexpected bar %q", got)
	}
	p := arr.QueuePage{TotalRecords: 3, Records: []arr.QueueRecord{{Title: "Dune.2021", Size: 100, SizeLeft: 50, Status: "downloading"}}}
	text := v.Text(p, 1)
	for _, want := range []string{"3\\. *Dune\\.2021*", "Page _2_ of _2_", "downloading"} {
		if !strings.Contains(text, want) {
			t.Fatalf("queue text misses %q:\n%s", want, text)
		}
	}
	kb := v.Keyboard(p, 1)
	if _, ok := kb.Find("Next ➡"); ok {
		t.Fatalf("last page must not offer next")
	}
	if b, ok := kb.Find("⬅ Prev"); !ok || b.Data != callbacks.Encode("movie", "queue", 0) {
		t.Fatalf("unexpected prev button %+v", b)
	}
	if empty := v.Text(arr.QueuePage{}, 0); !strings.Contains(empty, "_No Entries_") || !strings.Contains(empty, "Page _1_ of _1_") {
		t.Fatalf("unexpected empty queue:\n%s", empty)
	}
}

func TestFilterRanksByTitle(t *testing.T) {
	items := []arr.Item{{Title: "The Matrix"}, {Title: "Mad Max"}, {Title: "Amélie"}}
	got := Filter(items, "matrix")
	if len(got) != 1 || got[0].Title != "The Matrix" {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if all := Filter(items, " "); len(all) != 3 {
		t.Fatalf("blank filter must keep every item")
	}
}
