package resources

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adx-client/adx-go/adxdata"
	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/query"
	v1 "github.com/adx-client/adx-go/adxdata/query/v1"
	"github.com/goccy/go-json"
	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		desc        string
		url         string
		err         bool
		wantService string
		wantObject  string
		wantSAS     string
	}{
		{
			desc: "host is missing",
			url:  "https:///objectname",
			err:  true,
		},
		{
			desc: "host has a leading dot",
			url:  "https://.queue.core.windows.net/objectname",
			err:  true,
		},
		{
			desc: "no object name provided",
			url:  "https://account.queue.core.windows.net/",
			err:  true,
		},
		{
			desc: "bad scheme",
			url:  "http://account.table.core.windows.net/objectname",
			err:  true,
		},
		{
			desc:        "success",
			url:         "https://account.table.core.windows.net/objectname?sv=sig",
			wantService: "https://account.table.core.windows.net",
			wantObject:  "objectname",
			wantSAS:     "sv=sig",
		},
		{
			desc:        "minimal split",
			url:         "https://h/o?sas",
			wantService: "https://h",
			wantObject:  "o",
			wantSAS:     "sas",
		},
	}

	for _, test := range tests {
		got, err := parse(test.url)
		if test.err {
			assert.Error(t, err, test.desc)
			continue
		}
		require.NoError(t, err, test.desc)

		assert.Equal(t, test.wantService, got.ServiceURI(), test.desc)
		assert.Equal(t, test.wantObject, got.ObjectName(), test.desc)
		assert.Equal(t, test.wantSAS, got.SAS(), test.desc)
		assert.Equal(t, test.url, got.String(), test.desc)
	}
}

// fakeMgmt serves canned v1 bodies keyed by the statement text and counts calls.
type fakeMgmt struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  int32
	err    bool
}

func (f *fakeMgmt) Mgmt(ctx context.Context, db string, statement adxdata.Statement, _ ...adxdata.QueryOption) (query.FullDataset, error) {
	atomic.AddInt32(&f.calls, 1)

	if f.err {
		return nil, errors.ES(errors.OpMgmt, errors.KHTTPError, "some mgmt error")
	}
	if db != "NetDefaultDB" {
		return nil, errors.ES(errors.OpMgmt, errors.KDBNotExist, "expected the NetDefaultDB database, got %q", db)
	}

	f.mu.Lock()
	body, ok := f.bodies[statement.String()]
	f.mu.Unlock()
	if !ok {
		return nil, errors.ES(errors.OpMgmt, errors.KClientArgs, "unexpected statement %q", statement.String())
	}

	return v1.NewDatasetFromReader(ctx, errors.OpMgmt, io.NopCloser(strings.NewReader(body)))
}

func resourcesBody(rows [][2]string) string {
	type col struct {
		ColumnName string `json:"ColumnName"`
		ColumnType string `json:"ColumnType"`
	}
	out := map[string]interface{}{}
	jrows := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		jrows = append(jrows, []interface{}{r[0], r[1]})
	}
	out["Tables"] = []map[string]interface{}{{
		"TableName": "Table_0",
		"Columns": []col{
			{ColumnName: "ResourceTypeName", ColumnType: "string"},
			{ColumnName: "StorageRoot", ColumnType: "string"},
		},
		"Rows": jrows,
	}}
	b, err := json.Marshal(out)
	if err != nil {
		panic(err)
	}
	return string(b)
}

const authContextBody = `{"Tables":[{"TableName":"Table_0","Columns":[{"ColumnName":"AuthorizationContext","ColumnType":"string"}],"Rows":[["authtoken"]]}]}`

func mustParse(s string) *URI {
	u, err := parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func TestResources(t *testing.T) {
	tests := []struct {
		desc string
		fake *fakeMgmt
		err  bool
		want Ingestion
	}{
		{
			desc: "mgmt returns an error",
			fake: &fakeMgmt{err: true},
			err:  true,
		},
		{
			desc: "bad StorageRoot value",
			fake: &fakeMgmt{bodies: map[string]string{
				".get ingestion resources": resourcesBody([][2]string{
					{"TempStorage", "https://.blob.core.windows.net/storageroot"},
				}),
			}},
			err: true,
		},
		{
			desc: "success",
			fake: &fakeMgmt{bodies: map[string]string{
				".get ingestion resources": resourcesBody([][2]string{
					{"TempStorage", "https://account.blob.core.windows.net/storageroot0"},
					{"SecuredReadyForAggregationQueue", "https://account.queue.core.windows.net/ready0?sas"},
					{"SecuredReadyForAggregationQueue", "https://account.queue.core.windows.net/ready1?sas"},
					{"FailedIngestionsQueue", "https://account.queue.core.windows.net/failed?sas"},
					{"SuccessfulIngestionsQueue", "https://account.queue.core.windows.net/success?sas"},
					{"IngestionsStatusTable", "https://account.table.core.windows.net/status?sas"},
				}),
			}},
			want: Ingestion{
				Queues: []*URI{
					mustParse("https://account.queue.core.windows.net/ready0?sas"),
					mustParse("https://account.queue.core.windows.net/ready1?sas"),
				},
				FailedQueues:  []*URI{mustParse("https://account.queue.core.windows.net/failed?sas")},
				SuccessQueues: []*URI{mustParse("https://account.queue.core.windows.net/success?sas")},
				Containers:    []*URI{mustParse("https://account.blob.core.windows.net/storageroot0")},
				Tables:        []*URI{mustParse("https://account.table.core.windows.net/status?sas")},
			},
		},
	}

	for _, test := range tests {
		mgr := New(test.fake)

		got, err := mgr.Resources(context.Background())
		if test.err {
			assert.Error(t, err, test.desc)
			continue
		}
		require.NoError(t, err, test.desc)

		if diff := pretty.Compare(test.want, got); diff != "" {
			t.Errorf("TestResources(%s): -want/+got:\n%s", test.desc, diff)
		}
	}
}

func TestPickQueueNoResources(t *testing.T) {
	mgr := New(&fakeMgmt{bodies: map[string]string{
		".get ingestion resources": resourcesBody([][2]string{
			{"TempStorage", "https://account.blob.core.windows.net/storageroot0"},
		}),
	}})

	_, err := mgr.PickQueue(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Retry(err))
}

func TestAuthContext(t *testing.T) {
	tests := []struct {
		desc string
		body string
		err  bool
		want string
	}{
		{
			desc: "two rows, only one allowed",
			body: `{"Tables":[{"TableName":"Table_0","Columns":[{"ColumnName":"AuthorizationContext","ColumnType":"string"}],"Rows":[["a"],["b"]]}]}`,
			err:  true,
		},
		{
			desc: "missing column",
			body: `{"Tables":[{"TableName":"Table_0","Columns":[{"ColumnName":"SomethingElse","ColumnType":"string"}],"Rows":[["a"]]}]}`,
			err:  true,
		},
		{
			desc: "empty token",
			body: `{"Tables":[{"TableName":"Table_0","Columns":[{"ColumnName":"AuthorizationContext","ColumnType":"string"}],"Rows":[[""]]}]}`,
			err:  true,
		},
		{
			desc: "success",
			body: authContextBody,
			want: "authtoken",
		},
	}

	for _, test := range tests {
		mgr := New(&fakeMgmt{bodies: map[string]string{".get kusto identity token": test.body}})

		got, err := mgr.AuthContext(context.Background())
		if test.err {
			assert.Error(t, err, test.desc)
			continue
		}
		require.NoError(t, err, test.desc)
		assert.Equal(t, test.want, got, test.desc)
	}
}

func TestAuthContextCoalescing(t *testing.T) {
	fake := &fakeMgmt{bodies: map[string]string{".get kusto identity token": authContextBody}}
	mgr := New(fake)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := mgr.AuthContext(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "authtoken", got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.calls))

	// a lookup inside the refresh period issues no further commands
	_, err := mgr.AuthContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.calls))
}

func TestAuthContextFailureIsNotCached(t *testing.T) {
	fake := &fakeMgmt{err: true}
	mgr := New(fake, WithRefreshPeriod(time.Hour))

	_, err := mgr.AuthContext(context.Background())
	require.Error(t, err)

	fake.err = false
	fake.bodies = map[string]string{".get kusto identity token": authContextBody}

	got, err := mgr.AuthContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "authtoken", got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fake.calls))
}
