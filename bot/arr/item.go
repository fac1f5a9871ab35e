package arr

import (
	"encoding/json"
	"fmt"
)

// Item is one lookup or library record. Fields the bot reads are decoded;
// the full record is kept so it can be sent back on add.
type Item struct {
	ID                int64    `json:"id,omitempty"`
	Title             string   `json:"title"`
	Year              int      `json:"year,omitempty"`
	Runtime           int      `json:"runtime,omitempty"`
	Status            string   `json:"status,omitempty"`
	Overview          string   `json:"overview,omitempty"`
	FolderName        string   `json:"folderName,omitempty"`
	Folder            string   `json:"folder,omitempty"`
	Path              string   `json:"path,omitempty"`
	QualityProfileID  int      `json:"qualityProfileId,omitempty"`
	LanguageProfileID int      `json:"languageProfileId,omitempty"`
	Tags              []int    `json:"tags,omitempty"`
	Monitored         bool     `json:"monitored"`
	HasFile           bool     `json:"hasFile"`
	TmdbID            int      `json:"tmdbId,omitempty"`
	TvdbID            int      `json:"tvdbId,omitempty"`
	ImdbID            string   `json:"imdbId,omitempty"`
	RemotePoster      string   `json:"remotePoster,omitempty"`
	RemoteCover       string   `json:"remoteCover,omitempty"`
	Images            []Image  `json:"images,omitempty"`
	Links             []Link   `json:"links,omitempty"`
	Seasons           []Season `json:"seasons,omitempty"`

	raw json.RawMessage
}

type itemFields Item

// UnmarshalJSON decodes the known fields and keeps the original document.
func (it *Item) UnmarshalJSON(data []byte) error {
	var f itemFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*it = Item(f)
	it.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the original document when one was decoded.
func (it Item) MarshalJSON() ([]byte, error) {
	if len(it.raw) > 0 {
		return it.raw, nil
	}
	return json.Marshal(itemFields(it))
}

// InLibrary reports whether the backend already manages the item.
func (it Item) InLibrary() bool {
	return it.ID != 0
}

// SuggestedFolder is the folder name the backend proposes for the item.
func (it Item) SuggestedFolder() string {
	switch {
	case it.FolderName != "":
		return it.FolderName
	case it.Path != "":
		return it.Path
	}
	return it.Folder
}

// Poster returns the best cover image URL, or "".
func (it Item) Poster() string {
	if it.RemotePoster != "" {
		return it.RemotePoster
	}
	if it.RemoteCover != "" {
		return it.RemoteCover
	}
	for _, img := range it.Images {
		if img.CoverType == "poster" && img.RemoteURL != "" {
			return img.RemoteURL
		}
	}
	for _, img := range it.Images {
		if img.RemoteURL != "" {
			return img.RemoteURL
		}
	}
	return ""
}

// fields returns the record as a generic map for merging add options.
func (it Item) fields() (map[string]any, error) {
	data, err := it.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("arr: decode item fields: %w", err)
	}
	return out, nil
}

// Image is a poster, fanart or banner reference.
type Image struct {
	CoverType string `json:"coverType"`
	RemoteURL string `json:"remoteUrl,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Link is an external reference attached to books.
type Link struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Season is a series season summary.
type Season struct {
	SeasonNumber int               `json:"seasonNumber"`
	Monitored    bool              `json:"monitored"`
	Statistics   *SeasonStatistics `json:"statistics,omitempty"`
}

// SeasonStatistics counts the files present for a season.
type SeasonStatistics struct {
	EpisodeFileCount int `json:"episodeFileCount"`
	EpisodeCount     int `json:"episodeCount"`
	TotalEpisodes    int `json:"totalEpisodeCount"`
}

// Episode is one series episode.
type Episode struct {
	ID            int64  `json:"id"`
	SeriesID      int64  `json:"seriesId"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title"`
	AirDate       string `json:"airDate,omitempty"`
	Overview      string `json:"overview,omitempty"`
	HasFile       bool   `json:"hasFile"`
	Monitored     bool   `json:"monitored"`
}

// RootFolder is a configured library location.
type RootFolder struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
}

// Profile is a quality or language profile.
type Profile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Tag is a backend label.
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// QueuePage is one page of the download queue.
type QueuePage struct {
	Page         int           `json:"page"`
	PageSize     int           `json:"pageSize"`
	TotalRecords int           `json:"totalRecords"`
	Records      []QueueRecord `json:"records"`
}

// QueueRecord is an item being downloaded.
type QueueRecord struct {
	ID                   int64   `json:"id"`
	Title                string  `json:"title"`
	Size                 float64 `json:"size"`
	SizeLeft             float64 `json:"sizeleft"`
	Status               string  `json:"status"`
	TrackedDownloadState string  `json:"trackedDownloadState"`
	TimeLeft             string  `json:"timeleft"`
}

// Progress returns the downloaded fraction in [0, 1].
func (r QueueRecord) Progress() float64 {
	if r.Size <= 0 {
		return 0
	}
	p := 1 - r.SizeLeft/r.Size
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
