package adxdata

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/adx-client/adx-go/adxdata/errors"
)

const bearerScheme = "Bearer"

// TokenProvider acquires bearer tokens for a cluster. The token scope is derived from the
// cluster's auth metadata on first use.
type TokenProvider struct {
	endpoint string
	cred     azcore.TokenCredential
	http     *http.Client

	mu     sync.Mutex
	scopes []string
}

func newTokenProvider(endpoint string, cred azcore.TokenCredential, client *http.Client) *TokenProvider {
	return &TokenProvider{
		endpoint: endpoint,
		cred:     cred,
		http:     client,
	}
}

// AcquireToken returns a token and its scheme for the Authorization header. The token is
// an opaque secret and must never be logged.
func (t *TokenProvider) AcquireToken(ctx context.Context) (string, string, error) {
	scopes, err := t.resolveScopes(ctx)
	if err != nil {
		return "", "", err
	}

	token, err := t.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
	if err != nil {
		return "", "", errors.E(errors.OpServConn, errors.KOther, err)
	}
	return token.Token, bearerScheme, nil
}

// resolveScopes derives the token scope from the cluster's auth metadata. A failed lookup
// is retried on the next call rather than cached.
func (t *TokenProvider) resolveScopes(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.scopes != nil {
		return t.scopes, nil
	}

	ci, err := GetMetadata(ctx, t.endpoint, t.http)
	if err != nil {
		return nil, err
	}

	resource := ci.KustoServiceResourceID
	if ci.LoginMfaRequired {
		resource = strings.Replace(resource, ".kusto.", ".kustomfa.", 1)
	}
	t.scopes = []string{resource + "/.default"}
	return t.scopes, nil
}
