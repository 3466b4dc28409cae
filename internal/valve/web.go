package valve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/metacache"
)

const (
	DefaultAPIBase   = "https://api.steampowered.com"
	DefaultStoreBase = "https://store.steampowered.com"
)

// NewHTTPClient returns the instrumented client shared by the web sources
// and the asset downloader.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// StoreBrowseSource queries IStoreBrowseService/GetItems.
type StoreBrowseSource struct {
	Client  *http.Client
	BaseURL string
}

var _ Source = (*StoreBrowseSource)(nil)

// NewStoreBrowseSource returns a source for the store browse API.
func NewStoreBrowseSource(client *http.Client, baseURL string) *StoreBrowseSource {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	return &StoreBrowseSource{Client: client, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Kind implements Source.
func (s *StoreBrowseSource) Kind() metacache.Kind {
	return metacache.KindWeb
}

type storeBrowseInput struct {
	IDs         []storeBrowseID    `json:"ids"`
	Context     storeBrowseContext `json:"context"`
	DataRequest map[string]bool    `json:"data_request"`
}

type storeBrowseID struct {
	AppID uint64 `json:"appid"`
}

type storeBrowseContext struct {
	Language    string `json:"language"`
	ELanguage   int    `json:"elanguage"`
	CountryCode string `json:"country_code"`
	SteamRealm  int    `json:"steam_realm"`
}

var storeBrowseDataRequest = []string{
	"include_assets",
	"include_release",
	"include_platforms",
	"include_all_purchase_options",
	"include_screenshots",
	"include_trailers",
	"include_ratings",
	"include_reviews",
	"include_basic_info",
	"include_supported_languages",
	"include_full_description",
	"include_included_items",
	"include_assets_without_overrides",
	"include_links",
}

// RequestURL builds the GetItems URL for appID.
func (s *StoreBrowseSource) RequestURL(appID string) (string, error) {
	id, err := strconv.ParseUint(appID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid app ID %q: %w", appID, err)
	}

	input := storeBrowseInput{
		IDs:         []storeBrowseID{{AppID: id}},
		Context:     storeBrowseContext{Language: "english", CountryCode: "US"},
		DataRequest: make(map[string]bool, len(storeBrowseDataRequest)),
	}
	for _, flag := range storeBrowseDataRequest {
		input.DataRequest[flag] = true
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	q := url.Values{"input_json": {string(raw)}}
	return s.BaseURL + "/IStoreBrowseService/GetItems/v1/?" + q.Encode(), nil
}

// Fetch implements Source.
func (s *StoreBrowseSource) Fetch(ctx context.Context, appID string) (metacache.Blob, error) {
	u, err := s.RequestURL(appID)
	if err != nil {
		return nil, &FetchError{Source: metacache.KindWeb, AppID: appID, Err: err}
	}
	body, err := getBody(ctx, s.Client, metacache.KindWeb, appID, u)
	if err != nil {
		return nil, err
	}
	return extractObject(body, metacache.KindWeb, appID, "response.store_items.0")
}

// AppDetailsSource queries the store's appdetails endpoint.
type AppDetailsSource struct {
	Client  *http.Client
	BaseURL string
}

var _ Source = (*AppDetailsSource)(nil)

// NewAppDetailsSource returns a source for the appdetails API.
func NewAppDetailsSource(client *http.Client, baseURL string) *AppDetailsSource {
	if baseURL == "" {
		baseURL = DefaultStoreBase
	}
	return &AppDetailsSource{Client: client, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Kind implements Source.
func (s *AppDetailsSource) Kind() metacache.Kind {
	return metacache.KindStore
}

// Fetch implements Source.
func (s *AppDetailsSource) Fetch(ctx context.Context, appID string) (metacache.Blob, error) {
	u := s.BaseURL + "/api/appdetails?" + url.Values{"appids": {appID}}.Encode()
	body, err := getBody(ctx, s.Client, metacache.KindStore, appID, u)
	if err != nil {
		return nil, err
	}
	return extractObject(body, metacache.KindStore, appID, appID+".data")
}

func getBody(ctx context.Context, client *http.Client, kind metacache.Kind, appID, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Source: kind, AppID: appID, URL: u, Err: err}
	}

	logging.Debug("GET", "url", u)
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: kind, AppID: appID, URL: u, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Source:     kind,
			AppID:      appID,
			URL:        u,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("http error: %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: kind, AppID: appID, URL: u, Err: err}
	}
	return body, nil
}

func extractObject(body []byte, kind metacache.Kind, appID, path string) (metacache.Blob, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ParseError{Source: kind, AppID: appID, Reason: ReasonMalformed, Err: fmt.Errorf("invalid JSON body")}
	}

	res := gjson.GetBytes(body, path)
	if !res.Exists() || !res.IsObject() {
		return nil, &ParseError{Source: kind, AppID: appID, Reason: ReasonMissingPath, Path: path}
	}

	var blob metacache.Blob
	dec := json.NewDecoder(bytes.NewReader([]byte(res.Raw)))
	dec.UseNumber()
	if err := dec.Decode(&blob); err != nil {
		return nil, &ParseError{Source: kind, AppID: appID, Reason: ReasonMalformed, Err: err}
	}
	return blob, nil
}
