package arr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Subtitle is one provider search result from Bazarr.
type Subtitle struct {
	Provider        string
	Subtitle        string
	Score           string
	Release         []string
	HearingImpaired string
	Forced          string
	OriginalFormat  string
}

// Title is the first release name, or the provider when none is reported.
func (s Subtitle) Title() string {
	if len(s.Release) > 0 && s.Release[0] != "" {
		return s.Release[0]
	}
	return s.Provider
}

func subtitleFromMap(m map[string]any) Subtitle {
	str := func(key string) string {
		v, ok := m[key]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
	s := Subtitle{
		Provider:        str("provider"),
		Subtitle:        str("subtitle"),
		Score:           str("score"),
		HearingImpaired: str("hearing_impaired"),
		Forced:          str("forced"),
		OriginalFormat:  str("original_format"),
	}
	if rel, ok := m["release_info"].([]any); ok {
		for _, r := range rel {
			s.Release = append(s.Release, fmt.Sprint(r))
		}
	}
	return s
}

// Bazarr is a Bazarr API client.
type Bazarr struct {
	api
}

// NewBazarr builds a Bazarr client.
func NewBazarr(opts Options) *Bazarr {
	return &Bazarr{api: newAPI("bazarr", "/api", opts)}
}

// Status probes system/status and returns the Bazarr version.
func (b *Bazarr) Status(ctx context.Context) (string, error) {
	var st struct {
		Data struct {
			Version string `json:"bazarr_version"`
		} `json:"data"`
	}
	if err := b.do(ctx, http.MethodGet, "system/status", nil, nil, &st); err != nil {
		return "", err
	}
	if st.Data.Version == "" {
		return "", fmt.Errorf("arr: bazarr did not report a version")
	}
	return st.Data.Version, nil
}

func (b *Bazarr) search(ctx context.Context, path string, q url.Values) ([]Subtitle, error) {
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := b.do(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]Subtitle, 0, len(resp.Data))
	for _, m := range resp.Data {
		out = append(out, subtitleFromMap(m))
	}
	return out, nil
}

// MovieSubtitles searches the providers for a Radarr movie id.
func (b *Bazarr) MovieSubtitles(ctx context.Context, radarrID int64) ([]Subtitle, error) {
	return b.search(ctx, "providers/movies", url.Values{"radarrid": {strconv.FormatInt(radarrID, 10)}})
}

// EpisodeSubtitles searches the providers for a Sonarr episode id.
func (b *Bazarr) EpisodeSubtitles(ctx context.Context, episodeID int64) ([]Subtitle, error) {
	return b.search(ctx, "providers/episodes", url.Values{"episodeid": {strconv.FormatInt(episodeID, 10)}})
}

func downloadQuery(s Subtitle) url.Values {
	return url.Values{
		"hi":              {s.HearingImpaired},
		"forced":          {s.Forced},
		"original_format": {s.OriginalFormat},
		"provider":        {s.Provider},
		"subtitle":        {s.Subtitle},
	}
}

// DownloadMovie asks Bazarr to fetch a subtitle for a movie.
func (b *Bazarr) DownloadMovie(ctx context.Context, radarrID int64, s Subtitle) error {
	q := downloadQuery(s)
	q.Set("radarrid", strconv.FormatInt(radarrID, 10))
	return b.do(ctx, http.MethodPost, "providers/movies", q, nil, nil)
}

// DownloadEpisode asks Bazarr to fetch a subtitle for an episode.
func (b *Bazarr) DownloadEpisode(ctx context.Context, seriesID, episodeID int64, s Subtitle) error {
	q := downloadQuery(s)
	q.Set("seriesid", strconv.FormatInt(seriesID, 10))
	q.Set("episodeid", strconv.FormatInt(episodeID, 10))
	return b.do(ctx, http.MethodPost, "providers/episodes", q, nil, nil)
}
