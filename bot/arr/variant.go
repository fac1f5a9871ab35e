// Package arr talks to the Radarr, Sonarr, Readarr and Bazarr REST APIs.
//
// The clients are thin: every call runs under a per-client timeout and rate
// limiter, sends the API key in a header and retries transient statuses. Items
// keep the raw JSON the backend returned so that an add request can echo the
// lookup record back unchanged with the chosen options merged on top.
package arr

import "strings"

// Kind is the media shape a backend manages.
type Kind string

const (
	KindMovie     Kind = "movie"
	KindSeries    Kind = "series"
	KindBook      Kind = "book"
	KindSubtitles Kind = "subtitles"
)

// Variant describes one backend flavour.
type Variant struct {
	Name     string
	Kind     Kind
	Resource string
	APIPath  string
	// Languages reports whether the backend exposes language profiles.
	Languages bool
}

var (
	Radarr  = Variant{Name: "radarr", Kind: KindMovie, Resource: "movie", APIPath: "/api/v3"}
	Sonarr  = Variant{Name: "sonarr", Kind: KindSeries, Resource: "series", APIPath: "/api/v3", Languages: true}
	Readarr = Variant{Name: "readarr", Kind: KindBook, Resource: "book", APIPath: "/api/v1"}
)

// VariantFor resolves a configured service type.
func VariantFor(name string) (Variant, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Radarr.Name:
		return Radarr, true
	case Sonarr.Name:
		return Sonarr, true
	case Readarr.Name:
		return Readarr, true
	}
	return Variant{}, false
}
