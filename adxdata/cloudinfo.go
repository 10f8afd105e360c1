package adxdata

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const metadataPath = "/v1/rest/auth/metadata"

// CloudInfo is the auth metadata a cluster publishes: which AAD instance to log into and
// which resource to request tokens for.
type CloudInfo struct {
	LoginEndpoint          string `json:"LoginEndpoint"`
	LoginMfaRequired       bool   `json:"LoginMfaRequired"`
	KustoClientAppID       string `json:"KustoClientAppId"`
	KustoClientRedirectURI string `json:"KustoClientRedirectUri"`
	KustoServiceResourceID string `json:"KustoServiceResourceId"`
	FirstPartyAuthorityURL string `json:"FirstPartyAuthorityUrl"`
}

// defaultCloudInfo is the public cloud metadata, used when a cluster (or a proxy in front
// of it) does not implement the metadata endpoint.
var defaultCloudInfo = CloudInfo{
	LoginEndpoint:          "https://login.microsoftonline.com",
	LoginMfaRequired:       false,
	KustoClientAppID:       "db662dc1-0cfe-4e1c-a843-19a68e65be58",
	KustoClientRedirectURI: "https://microsoft/kustoclient",
	KustoServiceResourceID: "https://kusto.kusto.windows.net",
	FirstPartyAuthorityURL: "https://login.microsoftonline.com/f8cdef31-a31e-4b4a-93e4-5f571e91255a",
}

var cloudInfoCache = struct {
	mu      sync.Mutex
	entries map[string]CloudInfo
}{entries: map[string]CloudInfo{}}

// GetMetadata fetches the auth metadata for endpoint, caching the result per endpoint for
// the life of the process.
func GetMetadata(ctx context.Context, endpoint string, client *http.Client) (CloudInfo, error) {
	cloudInfoCache.mu.Lock()
	defer cloudInfoCache.mu.Unlock()

	if ci, ok := cloudInfoCache.entries[endpoint]; ok {
		return ci, nil
	}

	ci, err := fetchMetadata(ctx, endpoint, client)
	if err != nil {
		return CloudInfo{}, err
	}

	cloudInfoCache.entries[endpoint] = ci
	return ci, nil
}

func fetchMetadata(ctx context.Context, endpoint string, client *http.Client) (CloudInfo, error) {
	u := strings.TrimRight(endpoint, "/") + metadataPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return CloudInfo{}, errors.E(errors.OpCloudInfo, errors.KClientArgs, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return CloudInfo{}, errors.E(errors.OpCloudInfo, errors.KIO, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Not every cluster front-end implements the metadata endpoint.
		zerolog.Ctx(ctx).Warn().Str("endpoint", endpoint).Msg("auth metadata endpoint not found, using public cloud defaults")
		return defaultCloudInfo, nil
	}
	if resp.StatusCode != http.StatusOK {
		return CloudInfo{}, errors.HTTP(errors.OpCloudInfo, resp.Status, resp.StatusCode, resp.Body, "could not retrieve auth metadata: ")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CloudInfo{}, errors.E(errors.OpCloudInfo, errors.KIO, err)
	}
	if len(body) == 0 {
		return defaultCloudInfo, nil
	}

	var payload struct {
		AzureAD *CloudInfo `json:"AzureAD"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return CloudInfo{}, errors.E(errors.OpCloudInfo, errors.KInternal, err)
	}
	if payload.AzureAD == nil {
		zerolog.Ctx(ctx).Warn().Str("endpoint", endpoint).Msg("auth metadata had no AzureAD section, using public cloud defaults")
		return defaultCloudInfo, nil
	}

	return *payload.AzureAD, nil
}
