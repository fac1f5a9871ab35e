package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/arrbot/core/logger"
	"github.com/m3rciful/arrbot/core/netutil"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 2
	defaultRetryDelay = 500 * time.Millisecond
	apiKeyHeader      = "X-Api-Key"
)

var (
	// ErrUnavailable marks a backend that did not answer in time or could not be reached.
	ErrUnavailable = errors.New("arr: service unavailable")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("arr: not found")
	// ErrUnauthorized is returned when the API key is rejected.
	ErrUnauthorized = errors.New("arr: api key rejected")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("arr: unexpected status %d: %s", e.Code, e.Body)
}

// Options configures a backend client.
type Options struct {
	Host          string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	HTTPClient    *http.Client
}

// api is the transport shared by the arr and bazarr clients.
type api struct {
	name       string
	baseURL    string
	apiKey     string
	timeout    time.Duration
	limiter    *rate.Limiter
	http       *http.Client
	maxRetries int
	retryDelay time.Duration
}

func newAPI(name, apiPath string, opts Options) api {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	burst := 1
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		burst = int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = netutil.NewClient(netutil.ClientOptions{ResponseTimeout: timeout, ClientTimeout: timeout})
	}
	return api{
		name:       name,
		baseURL:    strings.TrimRight(opts.Host, "/") + apiPath,
		apiKey:     opts.APIKey,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, burst),
		http:       hc,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
}

// do performs one API call and decodes the JSON answer into out when out is non-nil.
func (a api) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reqURL := a.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("arr: encode %s body: %w", path, err)
		}
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			delay := a.retryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return a.unavailable(ctx.Err())
			}
		}
		if err := a.limiter.Wait(ctx); err != nil {
			return a.unavailable(err)
		}

		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, rdr)
		if err != nil {
			return fmt.Errorf("arr: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set(apiKeyHeader, a.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.http.Do(req)
		if err != nil {
			logger.Warn(ctx, "arr", "arr.request",
				slog.String("status", "fail"),
				slog.String("service", a.name),
				slog.String("op", method+" "+path),
				slog.String("err", err.Error()),
			)
			return a.unavailable(err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return a.unavailable(err)
		}

		if netutil.RetryableStatus(resp.StatusCode) {
			lastErr = &StatusError{Code: resp.StatusCode, Body: logger.SanitizeLimit(string(data), 200)}
			logger.Debug(ctx, "arr", "arr.request",
				slog.String("status", "retry"),
				slog.String("service", a.name),
				slog.String("op", method+" "+path),
				slog.Int("http_code", resp.StatusCode),
				slog.Int("attempts", attempt+1),
			)
			continue
		}

		logger.Debug(ctx, "arr", "arr.request",
			slog.String("status", "ok"),
			slog.String("service", a.name),
			slog.String("op", method+" "+path),
			slog.Int("http_code", resp.StatusCode),
			slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
		)

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return ErrUnauthorized
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return &StatusError{Code: resp.StatusCode, Body: logger.SanitizeLimit(string(data), 200)}
		}
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("arr: decode %s: %w", path, err)
		}
		return nil
	}
	return lastErr
}

func (a api) unavailable(err error) error {
	return fmt.Errorf("%w (%s): %v", ErrUnavailable, a.name, err)
}

// Client is a Radarr, Sonarr or Readarr API client.
type Client struct {
	api
	variant Variant
}

// NewClient builds a client for the given backend flavour.
func NewClient(v Variant, opts Options) *Client {
	return &Client{api: newAPI(v.Name, v.APIPath, opts), variant: v}
}

// Variant returns the backend flavour.
func (c *Client) Variant() Variant { return c.variant }

// Status probes system/status and returns the backend version.
func (c *Client) Status(ctx context.Context) (string, error) {
	var st struct {
		Version string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "system/status", nil, nil, &st); err != nil {
		return "", err
	}
	if st.Version == "" {
		return "", fmt.Errorf("arr: %s did not report a version", c.name)
	}
	return st.Version, nil
}

// Lookup searches the backend's metadata provider. An empty term yields no items.
func (c *Client) Lookup(ctx context.Context, term string) ([]Item, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	var items []Item
	err := c.do(ctx, http.MethodGet, c.variant.Resource+"/lookup", url.Values{"term": {term}}, nil, &items)
	return items, err
}

// Library lists every item the backend manages.
func (c *Client) Library(ctx context.Context) ([]Item, error) {
	var items []Item
	err := c.do(ctx, http.MethodGet, c.variant.Resource, nil, nil, &items)
	return items, err
}

// AddRequest carries the selections made before committing an item.
type AddRequest struct {
	Item              Item
	RootFolderPath    string
	QualityProfileID  int
	LanguageProfileID int
	Tags              []int
	Monitored         bool
	Options           map[string]any
}

// Payload merges the item record with the selections. Options win over everything else.
func (r AddRequest) Payload() (map[string]any, error) {
	body, err := r.Item.fields()
	if err != nil {
		return nil, err
	}
	tags := r.Tags
	if tags == nil {
		tags = []int{}
	}
	body["qualityProfileId"] = r.QualityProfileID
	if r.LanguageProfileID != 0 {
		body["languageProfileId"] = r.LanguageProfileID
	}
	body["rootFolderPath"] = r.RootFolderPath
	body["tags"] = tags
	body["monitored"] = r.Monitored
	body["minimumAvailability"] = "released"
	for k, v := range r.Options {
		body[k] = v
	}
	return body, nil
}

// Add creates the item, or updates it when it is already in the library.
func (c *Client) Add(ctx context.Context, req AddRequest) (Item, error) {
	body, err := req.Payload()
	if err != nil {
		return Item{}, err
	}
	var out Item
	if req.Item.InLibrary() {
		path := c.variant.Resource + "/" + strconv.FormatInt(req.Item.ID, 10)
		err = c.do(ctx, http.MethodPut, path, nil, body, &out)
	} else {
		err = c.do(ctx, http.MethodPost, c.variant.Resource, nil, body, &out)
	}
	if err != nil {
		return Item{}, err
	}
	return out, nil
}

// Remove deletes the item. Deleting an unknown id is not an error.
func (c *Client) Remove(ctx context.Context, id int64) error {
	err := c.do(ctx, http.MethodDelete, c.variant.Resource+"/"+strconv.FormatInt(id, 10), nil, nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// RootFolders lists configured library folders.
func (c *Client) RootFolders(ctx context.Context) ([]RootFolder, error) {
	var out []RootFolder
	err := c.do(ctx, http.MethodGet, "rootfolder", nil, nil, &out)
	return out, err
}

// RootFolder fetches one folder by id.
func (c *Client) RootFolder(ctx context.Context, id int) (RootFolder, error) {
	var out RootFolder
	err := c.do(ctx, http.MethodGet, "rootfolder/"+strconv.Itoa(id), nil, nil, &out)
	return out, err
}

// QualityProfiles lists quality profiles.
func (c *Client) QualityProfiles(ctx context.Context) ([]Profile, error) {
	var out []Profile
	err := c.do(ctx, http.MethodGet, "qualityprofile", nil, nil, &out)
	return out, err
}

// QualityProfile fetches one quality profile.
func (c *Client) QualityProfile(ctx context.Context, id int) (Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodGet, "qualityprofile/"+strconv.Itoa(id), nil, nil, &out)
	return out, err
}

// LanguageProfiles lists language profiles. Backends without them yield none.
func (c *Client) LanguageProfiles(ctx context.Context) ([]Profile, error) {
	if !c.variant.Languages {
		return nil, nil
	}
	var out []Profile
	err := c.do(ctx, http.MethodGet, "languageprofile", nil, nil, &out)
	return out, err
}

// LanguageProfile fetches one language profile.
func (c *Client) LanguageProfile(ctx context.Context, id int) (Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodGet, "languageprofile/"+strconv.Itoa(id), nil, nil, &out)
	return out, err
}

// Tags lists backend tags.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	var out []Tag
	err := c.do(ctx, http.MethodGet, "tag", nil, nil, &out)
	return out, err
}

// Queue returns a zero-based page of the download queue.
func (c *Client) Queue(ctx context.Context, page, pageSize int) (QueuePage, error) {
	if page < 0 {
		page = 0
	}
	q := url.Values{
		"page":     {strconv.Itoa(page + 1)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	var out QueuePage
	if err := c.do(ctx, http.MethodGet, "queue", q, nil, &out); err != nil {
		return QueuePage{}, err
	}
	out.Page = page
	if out.PageSize == 0 {
		out.PageSize = pageSize
	}
	return out, nil
}

// Episodes lists a series' episodes, optionally restricted to one season (season < 0 for all).
func (c *Client) Episodes(ctx context.Context, seriesID int64, season int) ([]Episode, error) {
	q := url.Values{"seriesId": {strconv.FormatInt(seriesID, 10)}}
	if season >= 0 {
		q.Set("seasonNumber", strconv.Itoa(season))
	}
	var out []Episode
	err := c.do(ctx, http.MethodGet, "episode", q, nil, &out)
	return out, err
}

// SearchSeason asks the backend to search for every episode of a season.
func (c *Client) SearchSeason(ctx context.Context, seriesID int64, season int) error {
	body := map[string]any{
		"name":         "SeasonSearch",
		"seriesId":     seriesID,
		"seasonNumber": season,
	}
	return c.do(ctx, http.MethodPost, "command", nil, body, nil)
}
