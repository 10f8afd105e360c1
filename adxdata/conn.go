package adxdata

// conn.go holds the HTTP connection to the service and builds the POST requests the query
// and management endpoints expect.

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Conn provides connectivity to a cluster.
type Conn struct {
	endpoint          string
	endQuery, endMgmt *url.URL
	tokenProvider     *TokenProvider
	client            *http.Client
	clientDetails     *ClientDetails
}

// NewConn returns a new Conn object with an injected http.Client.
func NewConn(endpoint string, tokenProvider *TokenProvider, client *http.Client, details *ClientDetails) (*Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.ES(errors.OpServConn, errors.KClientArgs, "could not parse the endpoint(%s): %s", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.ES(errors.OpServConn, errors.KClientArgs, "endpoint is not a valid URL: %s", endpoint)
	}

	return &Conn{
		endpoint:      endpoint,
		endQuery:      &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/v2/rest/query"},
		endMgmt:       &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/v1/rest/mgmt"},
		tokenProvider: tokenProvider,
		client:        client,
		clientDetails: details,
	}, nil
}

type queryMsg struct {
	DB         string             `json:"db"`
	CSL        string             `json:"csl"`
	Properties *requestProperties `json:"properties,omitempty"`
}

// query posts to the v2 query endpoint and returns the decompressed response body.
func (c *Conn) query(ctx context.Context, db string, query Statement, properties *requestProperties) (io.ReadCloser, error) {
	return c.doRequest(ctx, errors.OpQuery, c.endQuery, db, query, properties)
}

// mgmt posts to the v1 management endpoint and returns the decompressed response body.
func (c *Conn) mgmt(ctx context.Context, db string, query Statement, properties *requestProperties) (io.ReadCloser, error) {
	return c.doRequest(ctx, errors.OpMgmt, c.endMgmt, db, query, properties)
}

func (c *Conn) doRequest(ctx context.Context, op errors.Op, endpoint *url.URL, db string, query Statement, properties *requestProperties) (io.ReadCloser, error) {
	buff := &bytes.Buffer{}
	err := json.NewEncoder(buff).Encode(queryMsg{
		DB:         db,
		CSL:        query.String(),
		Properties: properties,
	})
	if err != nil {
		return nil, errors.ES(op, errors.KClientInternal, "could not JSON marshal the request body: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), buff)
	if err != nil {
		return nil, errors.E(op, errors.KClientInternal, err)
	}

	clientRequestID := "ADX.Go.execute;" + uuid.NewString()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip,deflate")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("x-ms-client-request-id", clientRequestID)
	req.Header.Set("x-ms-client-version", c.clientDetails.ClientVersionForTracing())
	req.Header.Set("x-ms-app", c.clientDetails.ApplicationForTracing())
	req.Header.Set("x-ms-user", c.clientDetails.UserForTracing())

	if c.tokenProvider != nil {
		token, scheme, err := c.tokenProvider.AcquireToken(ctx)
		if err != nil {
			return nil, errors.E(op, errors.KInternal, err)
		}
		req.Header.Set("Authorization", scheme+" "+token)
	}

	// The token stays out of the log.
	zerolog.Ctx(ctx).Debug().
		Str("endpoint", endpoint.String()).
		Str("db", db).
		Str("clientRequestId", clientRequestID).
		Msg("executing statement")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.E(op, errors.KHTTPError, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errors.HTTP(op, resp.Status, resp.StatusCode, resp.Body, "error from the service: ")
	}

	body, err := decompressedBody(resp, op)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	return body, nil
}

// decompressedBody unwraps the response body per its Content-Encoding.
func decompressedBody(resp *http.Response, op errors.Op) (io.ReadCloser, error) {
	switch enc := strings.ToLower(resp.Header.Get("Content-Encoding")); enc {
	case "":
		return resp.Body, nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, errors.ES(op, errors.KClientInternal, "gzip reader error: %s", err)
		}
		return &wrappedBody{reader: gz, orig: resp.Body}, nil
	case "deflate":
		return &wrappedBody{reader: flate.NewReader(resp.Body), orig: resp.Body}, nil
	default:
		return nil, errors.ES(op, errors.KClientInternal, "Content-Encoding was unrecognized: %s", enc)
	}
}

// wrappedBody closes both the decompressor and the underlying network body.
type wrappedBody struct {
	reader io.ReadCloser
	orig   io.ReadCloser
}

func (w *wrappedBody) Read(p []byte) (int, error) {
	return w.reader.Read(p)
}

func (w *wrappedBody) Close() error {
	err := w.reader.Close()
	if cerr := w.orig.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close closes idle connections held by the underlying http client.
func (c *Conn) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
