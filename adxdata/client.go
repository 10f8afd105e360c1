// Package adxdata is a client for the service's query and management endpoints. Queries
// go over the v2 streaming protocol and can be consumed fully buffered or table by table;
// management commands go over the v1 protocol.
package adxdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/query"
	v1 "github.com/adx-client/adx-go/adxdata/query/v1"
	v2 "github.com/adx-client/adx-go/adxdata/query/v2"
)

// Statement is an injection-safe query or command. Build one with kql.New; user input
// goes in through the typed Add methods or through kql.Parameters.
type Statement interface {
	fmt.Stringer
	// GetParameters returns the out-of-band parameter collection, when supported.
	GetParameters() (map[string]string, error)
	// SupportsInlineParameters reports whether the statement carries its own parameters.
	SupportsInlineParameters() bool
}

const (
	defaultQueryTimeout = 4 * time.Minute
	defaultMgmtTimeout  = time.Hour
	// clientServerDelta keeps the client-side wait a little longer than the server's own
	// timeout so the server error arrives before the client gives up.
	clientServerDelta = 30 * time.Second
)

type callType int8

const (
	queryCall callType = 1
	mgmtCall  callType = 2
)

// Client is a client to a single cluster.
type Client struct {
	conn          *Conn
	endpoint      string
	http          *http.Client
	clientDetails *ClientDetails
}

// Option is an optional argument type for New.
type Option func(c *Client)

// WithHttpClient overrides the http.Client used for every request.
func WithHttpClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithClientDetails sets the application and user strings reported to the service for
// tracing.
func WithClientDetails(application, user string) Option {
	return func(c *Client) {
		c.clientDetails = NewClientDetails(application, user)
	}
}

// New returns a new Client authenticating with cred.
func New(endpoint string, cred azcore.TokenCredential, options ...Option) (*Client, error) {
	client := &Client{endpoint: endpoint}
	for _, o := range options {
		o(client)
	}

	if client.http == nil {
		client.http = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if client.clientDetails == nil {
		client.clientDetails = NewClientDetails("", "")
	}

	var tp *TokenProvider
	if cred != nil {
		tp = newTokenProvider(endpoint, cred, client.http)
	}

	conn, err := NewConn(endpoint, tp, client.http, client.clientDetails)
	if err != nil {
		return nil, err
	}
	client.conn = conn

	return client, nil
}

// NewWithDefaultCredential returns a new Client authenticating with the default Azure
// credential chain (environment, managed identity, CLI).
func NewWithDefaultCredential(endpoint string, options ...Option) (*Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, errors.E(errors.OpServConn, errors.KOther, err)
	}
	return New(endpoint, cred, options...)
}

// Endpoint returns the endpoint passed to New.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Query executes a query and buffers the entire result before returning. Use
// IterativeQuery for results too large to hold in memory.
func (c *Client) Query(ctx context.Context, db string, statement Statement, options ...QueryOption) (v2.Dataset, error) {
	body, _, err := c.runQuery(ctx, db, statement, options)
	if err != nil {
		return nil, err
	}
	return v2.NewFullDataSet(ctx, body)
}

// IterativeQuery executes a query and streams tables to the caller as the service sends
// them. The returned dataset must be closed.
func (c *Client) IterativeQuery(ctx context.Context, db string, statement Statement, options ...QueryOption) (v2.IterativeDataset, error) {
	body, opts, err := c.runQuery(ctx, db, statement, options)
	if err != nil {
		return nil, err
	}
	return v2.NewIterativeDataset(ctx, body, opts.rowCapacity)
}

// QueryToJson executes a query and returns the raw v2 response body.
func (c *Client) QueryToJson(ctx context.Context, db string, statement Statement, options ...QueryOption) (string, error) {
	body, _, err := c.runQuery(ctx, db, statement, options)
	if err != nil {
		return "", err
	}
	defer body.Close()

	all, err := io.ReadAll(body)
	if err != nil {
		return "", errors.E(errors.OpQuery, errors.KIO, err)
	}
	return string(all), nil
}

func (c *Client) runQuery(ctx context.Context, db string, statement Statement, options []QueryOption) (io.ReadCloser, *queryOptions, error) {
	if strings.HasPrefix(strings.TrimSpace(statement.String()), ".") {
		return nil, nil, errors.ES(errors.OpQuery, errors.KClientArgs, "management commands must go through Mgmt()").SetNoRetry()
	}

	opts, err := setQueryOptions(ctx, errors.OpQuery, statement, queryCall, options...)
	if err != nil {
		return nil, nil, err
	}

	body, err := c.conn.query(ctx, db, statement, opts.requestProperties)
	if err != nil {
		return nil, nil, err
	}
	return body, opts, nil
}

// Mgmt executes a management command against the v1 endpoint and returns the materialized
// result.
func (c *Client) Mgmt(ctx context.Context, db string, statement Statement, options ...QueryOption) (query.FullDataset, error) {
	opts, err := setQueryOptions(ctx, errors.OpMgmt, statement, mgmtCall, options...)
	if err != nil {
		return nil, err
	}

	body, err := c.conn.mgmt(ctx, db, statement, opts.requestProperties)
	if err != nil {
		return nil, err
	}
	return v1.NewDatasetFromReader(ctx, errors.OpMgmt, body)
}

func setQueryOptions(ctx context.Context, op errors.Op, statement Statement, call callType, options ...QueryOption) (*queryOptions, error) {
	opt := &queryOptions{
		requestProperties: &requestProperties{
			Options: map[string]interface{}{},
		},
		rowCapacity: v2.DefaultRowCapacity,
	}

	if call == queryCall {
		// The assemblers only understand the fragmented non-progressive framing.
		opt.requestProperties.Options[ResultsProgressiveEnabledValue] = false
		opt.requestProperties.Options[NewlinesBetweenFramesValue] = true
		opt.requestProperties.Options[FragmentPrimaryTablesValue] = true
		opt.requestProperties.Options[ErrorReportingPlacementValue] = ErrorReportingPlacementEndOfTab
	}

	for _, o := range options {
		if err := o(opt); err != nil {
			return nil, errors.ES(op, errors.KClientArgs, "option validation error: %s", err).SetNoRetry()
		}
	}

	if call == mgmtCall {
		// v1 framing has no notion of these.
		delete(opt.requestProperties.Options, ResultsProgressiveEnabledValue)
		delete(opt.requestProperties.Options, NewlinesBetweenFramesValue)
		delete(opt.requestProperties.Options, FragmentPrimaryTablesValue)
		delete(opt.requestProperties.Options, ErrorReportingPlacementValue)
	}

	calculateTimeout(ctx, opt, call)

	if statement.SupportsInlineParameters() {
		if opt.requestProperties.QueryParameters != nil {
			return nil, errors.ES(op, errors.KClientArgs, "this statement carries its own parameters and does not support the QueryParameters option").SetNoRetry()
		}
		params, err := statement.GetParameters()
		if err != nil {
			return nil, errors.ES(op, errors.KClientArgs, "parameter validation error: %s", err).SetNoRetry()
		}
		opt.requestProperties.Parameters = params
	} else if opt.requestProperties.QueryParameters != nil {
		opt.requestProperties.Parameters = opt.requestProperties.QueryParameters.ToParameterCollection()
	}

	return opt, nil
}

// calculateTimeout fills in servertimeout when the caller did not set one: the context
// deadline when present, otherwise the per-call default plus a client/server delta.
func calculateTimeout(ctx context.Context, opt *queryOptions, call callType) {
	if val, ok := opt.requestProperties.Options[NoRequestTimeoutValue]; ok && val.(bool) {
		return
	}
	if _, ok := opt.requestProperties.Options[ServerTimeoutValue]; ok {
		return
	}

	if deadline, ok := ctx.Deadline(); ok {
		opt.requestProperties.Options[ServerTimeoutValue] = timeoutString(time.Until(deadline))
		return
	}

	var timeout time.Duration
	switch call {
	case queryCall:
		timeout = defaultQueryTimeout
	case mgmtCall:
		timeout = defaultMgmtTimeout
	}
	opt.requestProperties.Options[ServerTimeoutValue] = timeoutString(timeout + clientServerDelta)
}

// Close releases the connection's resources.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
