// Package resources fetches and caches the ingestion resources (queues, containers,
// status tables) and the identity token the service hands out for queued ingestion.
package resources

import (
	"context"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/adx-client/adx-go/adxdata"
	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/kql"
	"github.com/adx-client/adx-go/adxdata/query"
	"github.com/adx-client/adx-go/adxdata/utils"
	"github.com/samber/lo"
)

const (
	// netDefaultDB is the database the internal control commands run against.
	netDefaultDB = "NetDefaultDB"

	defaultRefreshPeriod = 1 * time.Hour
)

// URI is a storage resource URI handed out by the service, split into the pieces the
// storage clients are constructed from: https://<host>/<object>?<sas>.
type URI struct {
	serviceURI string
	objectName string
	sas        string
	original   string
}

// parse splits a storage resource URI. The scheme must be https and both the host and the
// object name must be present.
func parse(uri string) (*URI, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.ES(errors.OpIngest, errors.KClientArgs, "could not parse the storage resource URI %q: %s", uri, err)
	}
	if u.Scheme != "https" {
		return nil, errors.ES(errors.OpIngest, errors.KClientArgs, "storage resource URI scheme must be https, got %q", u.Scheme)
	}
	if u.Host == "" || strings.HasPrefix(u.Host, ".") {
		return nil, errors.ES(errors.OpIngest, errors.KClientArgs, "storage resource URI %q has no usable host", uri)
	}
	object := strings.TrimPrefix(u.Path, "/")
	if object == "" {
		return nil, errors.ES(errors.OpIngest, errors.KClientArgs, "storage resource URI %q has no object name", uri)
	}

	return &URI{
		serviceURI: u.Scheme + "://" + u.Host,
		objectName: object,
		sas:        u.RawQuery,
		original:   uri,
	}, nil
}

// ServiceURI returns the scheme and host part, e.g. "https://account.queue.core.windows.net".
func (u *URI) ServiceURI() string {
	return u.serviceURI
}

// ObjectName returns the queue, container or table name.
func (u *URI) ObjectName() string {
	return u.objectName
}

// SAS returns the raw query string carrying the shared access signature. It is a secret
// and must never be logged.
func (u *URI) SAS() string {
	return u.sas
}

// String returns the original URI, SAS included. Not for logging.
func (u *URI) String() string {
	return u.original
}

// Ingestion is the set of storage resources the service exposes for queued ingestion,
// grouped by role.
type Ingestion struct {
	// Queues are the aggregation queues ingestion messages are posted to.
	Queues []*URI
	// FailedQueues carry reports about failed ingestions.
	FailedQueues []*URI
	// SuccessQueues carry reports about successful ingestions.
	SuccessQueues []*URI
	// Containers are the temp storage containers local data is uploaded to.
	Containers []*URI
	// Tables are the ingestion status tables.
	Tables []*URI
}

// Resource type names the service uses in the .get ingestion resources response.
const (
	aggQueueType     = "SecuredReadyForAggregationQueue"
	failedQueueType  = "FailedIngestionsQueue"
	successQueueType = "SuccessfulIngestionsQueue"
	tempStorageType  = "TempStorage"
	statusTableType  = "IngestionsStatusTable"
)

// Mgmter runs management commands. Satisfied by *adxdata.Client.
type Mgmter interface {
	Mgmt(ctx context.Context, db string, statement adxdata.Statement, options ...adxdata.QueryOption) (query.FullDataset, error)
}

// Manager caches the ingestion resources and the identity token, both refreshed lazily
// through a management command once their refresh period has passed. Concurrent lookups
// over a stale window issue a single command.
type Manager struct {
	client        Mgmter
	refreshPeriod time.Duration

	resources   *utils.Cached[Ingestion]
	authContext *utils.Cached[string]
}

// Option is an optional argument to New.
type Option func(m *Manager)

// WithRefreshPeriod overrides the hourly cache refresh period.
func WithRefreshPeriod(d time.Duration) Option {
	return func(m *Manager) {
		m.refreshPeriod = d
	}
}

// New returns a Manager that runs its control commands through client.
func New(client Mgmter, options ...Option) *Manager {
	m := &Manager{
		client:        client,
		refreshPeriod: defaultRefreshPeriod,
	}
	for _, o := range options {
		o(m)
	}

	m.resources = utils.NewCached[Ingestion](m.refreshPeriod)
	m.authContext = utils.NewCached[string](m.refreshPeriod)

	return m
}

// Resources returns the current ingestion resources, refreshing them first when stale.
func (m *Manager) Resources(ctx context.Context) (Ingestion, error) {
	return m.resources.GetOrRefresh(ctx, m.fetchResources)
}

// AuthContext returns the identity token attached to every ingestion message, refreshing
// it first when stale.
func (m *Manager) AuthContext(ctx context.Context) (string, error) {
	return m.authContext.GetOrRefresh(ctx, m.fetchAuthContext)
}

// PickQueue chooses an aggregation queue uniformly at random.
func (m *Manager) PickQueue(ctx context.Context) (*URI, error) {
	resc, err := m.Resources(ctx)
	if err != nil {
		return nil, err
	}
	if len(resc.Queues) == 0 {
		return nil, errors.ES(errors.OpIngest, errors.KNoResources, "no aggregation queue resources are defined, there is no queue to post to").SetNoRetry()
	}
	return resc.Queues[rand.Intn(len(resc.Queues))], nil
}

// PickContainer chooses a temp storage container uniformly at random.
func (m *Manager) PickContainer(ctx context.Context) (*URI, error) {
	resc, err := m.Resources(ctx)
	if err != nil {
		return nil, err
	}
	if len(resc.Containers) == 0 {
		return nil, errors.ES(errors.OpIngest, errors.KNoResources, "no temp storage container resources are defined, there is no container to upload to").SetNoRetry()
	}
	return resc.Containers[rand.Intn(len(resc.Containers))], nil
}

type ingestResc struct {
	Type string `kusto:"ResourceTypeName"`
	Root string `kusto:"StorageRoot"`
}

func (m *Manager) fetchResources(ctx context.Context) (Ingestion, error) {
	ds, err := m.client.Mgmt(ctx, netDefaultDB, kql.New(".get ingestion resources"))
	if err != nil {
		return Ingestion{}, errors.E(errors.OpIngest, errors.KInternal, err)
	}

	primaries := ds.PrimaryResults()
	if len(primaries) != 1 {
		return Ingestion{}, errors.ES(errors.OpIngest, errors.KInternal, "expected exactly one table of ingestion resources, got %d", len(primaries))
	}

	rows, err := query.ToStructs[ingestResc](primaries[0])
	if err != nil {
		return Ingestion{}, errors.E(errors.OpIngest, errors.KInternal, err)
	}

	groups := lo.GroupBy(rows, func(r ingestResc) string { return r.Type })

	var ingest Ingestion
	for _, g := range []struct {
		name string
		out  *[]*URI
	}{
		{aggQueueType, &ingest.Queues},
		{failedQueueType, &ingest.FailedQueues},
		{successQueueType, &ingest.SuccessQueues},
		{tempStorageType, &ingest.Containers},
		{statusTableType, &ingest.Tables},
	} {
		for _, r := range groups[g.name] {
			u, err := parse(r.Root)
			if err != nil {
				return Ingestion{}, err
			}
			*g.out = append(*g.out, u)
		}
	}

	return ingest, nil
}

type authContextResc struct {
	AuthorizationContext string `kusto:"AuthorizationContext"`
}

func (m *Manager) fetchAuthContext(ctx context.Context) (string, error) {
	ds, err := m.client.Mgmt(ctx, netDefaultDB, kql.New(".get kusto identity token"))
	if err != nil {
		return "", errors.E(errors.OpIngest, errors.KInternal, err)
	}

	primaries := ds.PrimaryResults()
	if len(primaries) != 1 {
		return "", errors.ES(errors.OpIngest, errors.KInternal, "expected exactly one table from the identity token command, got %d", len(primaries))
	}

	if primaries[0].ColumnByName("AuthorizationContext") == nil {
		return "", errors.ES(errors.OpIngest, errors.KInternal, "the identity token command response has no AuthorizationContext column")
	}

	rows, errs := primaries[0].GetAllRows()
	if errs != nil {
		return "", errors.E(errors.OpIngest, errors.KInternal, errors.GetCombinedError(errs...))
	}
	if len(rows) != 1 {
		return "", errors.ES(errors.OpIngest, errors.KInternal, "expected exactly one row from the identity token command, got %d", len(rows))
	}

	var out authContextResc
	if err := rows[0].ToStruct(&out); err != nil {
		return "", errors.E(errors.OpIngest, errors.KInternal, err)
	}
	if out.AuthorizationContext == "" {
		return "", errors.ES(errors.OpIngest, errors.KInternal, "the identity token command returned an empty AuthorizationContext")
	}

	return out.AuthorizationContext, nil
}
