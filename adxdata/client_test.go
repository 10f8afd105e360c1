package adxdata

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/kql"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queryFrames = `[{"FrameType":"DataSetHeader","IsProgressive":false,"Version":"v2.0","IsFragmented":true,"ErrorReportingPlacement":"EndOfTable"}
,{"FrameType":"TableHeader","TableId":1,"TableKind":"PrimaryResult","TableName":"PrimaryResult","Columns":[{"ColumnName":"x","ColumnType":"long"}]}
,{"FrameType":"TableFragment","TableFragmentType":"DataAppend","TableId":1,"Rows":[[1]]}
,{"FrameType":"TableCompletion","TableId":1,"RowCount":1}
,{"FrameType":"DataSetCompletion","HasErrors":false,"Cancelled":false}
]`

const mgmtBody = `{"Tables":[
{"TableName":"Table_0","Columns":[{"ColumnName":"TableName","ColumnType":"string"}],"Rows":[["KustoRsTest"]]},
{"TableName":"Table_1","Columns":[{"ColumnName":"Value","ColumnType":"string"}],"Rows":[["{}"]]},
{"TableName":"Table_2","Columns":[{"ColumnName":"SeverityName","ColumnType":"string"}],"Rows":[["Info"]]},
{"TableName":"Table_3","Columns":[{"ColumnName":"Ordinal","ColumnType":"long"},{"ColumnName":"Kind","ColumnType":"string"},{"ColumnName":"Name","ColumnType":"string"},{"ColumnName":"Id","ColumnType":"string"},{"ColumnName":"PrettyName","ColumnType":"string"}],"Rows":[[0,"QueryResult","PrimaryResult","07dd9603-3e06-4c62-986b-dfc3d586b05a",""],[1,"QueryProperties","@ExtendedProperties","0",""],[2,"QueryStatus","QueryStatus","0",""]]}
]}`

func TestClientQuery(t *testing.T) {
	var got queryMsg
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/rest/query", r.URL.Path)
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, queryFrames)
	}))
	defer srv.Close()

	client, err := New(srv.URL, nil)
	require.NoError(t, err)
	defer client.Close()

	ds, err := client.Query(context.Background(), "DB", kql.New("print x=1"))
	require.NoError(t, err)

	require.Len(t, ds.PrimaryResults(), 1)
	rows, errs := ds.PrimaryResults()[0].GetAllRows()
	require.Empty(t, errs)
	require.Len(t, rows, 1)

	assert.Equal(t, "DB", got.DB)
	assert.Equal(t, "print x=1", got.CSL)
	require.NotNil(t, got.Properties)
	assert.Equal(t, false, got.Properties.Options[ResultsProgressiveEnabledValue])
	assert.Contains(t, got.Properties.Options, ServerTimeoutValue)

	assert.Equal(t, "application/json; charset=utf-8", gotHeaders.Get("Content-Type"))
	assert.Contains(t, gotHeaders.Get("x-ms-client-request-id"), "ADX.Go.execute;")
	assert.Contains(t, gotHeaders.Get("x-ms-client-version"), "ADX.Go.Client:")
	assert.NotEmpty(t, gotHeaders.Get("x-ms-app"))
	assert.NotEmpty(t, gotHeaders.Get("x-ms-user"))
	assert.Empty(t, gotHeaders.Get("Authorization"))
}

func TestClientMgmt(t *testing.T) {
	var got queryMsg

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/rest/mgmt", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, mgmtBody)
	}))
	defer srv.Close()

	client, err := New(srv.URL, nil)
	require.NoError(t, err)
	defer client.Close()

	ds, err := client.Mgmt(context.Background(), "DB", kql.New(`.show tables | where TableName=="KustoRsTest"`))
	require.NoError(t, err)

	assert.Len(t, ds.Tables(), 4)
	require.Len(t, ds.PrimaryResults(), 1)

	// mgmt requests never carry the v2 framing options
	assert.NotContains(t, got.Properties.Options, ResultsProgressiveEnabledValue)
	assert.Contains(t, got.Properties.Options, ServerTimeoutValue)
}

func TestClientQueryRejectsCommands(t *testing.T) {
	client, err := New("https://cluster.example.com", nil)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Query(context.Background(), "DB", kql.New(".show tables"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mgmt()")
	assert.False(t, errors.Retry(err))
}

func TestClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"BadRequest"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := New(srv.URL, nil)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Query(context.Background(), "DB", kql.New("print x=1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BadRequest")
	assert.False(t, errors.Retry(err))
}

func TestClientGzipResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = io.WriteString(gz, queryFrames)
		require.NoError(t, gz.Close())
	}))
	defer srv.Close()

	client, err := New(srv.URL, nil)
	require.NoError(t, err)
	defer client.Close()

	ds, err := client.Query(context.Background(), "DB", kql.New("print x=1"))
	require.NoError(t, err)
	require.Len(t, ds.PrimaryResults(), 1)
}

func TestClientQueryToJson(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, queryFrames)
	}))
	defer srv.Close()

	client, err := New(srv.URL, nil)
	require.NoError(t, err)
	defer client.Close()

	raw, err := client.QueryToJson(context.Background(), "DB", kql.New("print x=1"))
	require.NoError(t, err)
	assert.Equal(t, queryFrames, raw)
}

func TestClientQueryParameters(t *testing.T) {
	var got queryMsg

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, queryFrames)
	}))
	defer srv.Close()

	client, err := New(srv.URL, nil)
	require.NoError(t, err)
	defer client.Close()

	params := kql.NewParameters().AddString("name", "KustoRsTest")
	stmt := kql.New("declare query_parameters(name:string); print x=name")

	_, err = client.Query(context.Background(), "DB", stmt, QueryParameters(params))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"name": `"KustoRsTest"`}, got.Properties.Parameters)
}

func TestGetMetadataDefaultsOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ci, err := GetMetadata(context.Background(), srv.URL, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, defaultCloudInfo, ci)
}

func TestGetMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/rest/auth/metadata", r.URL.Path)
		_, _ = io.WriteString(w, `{"AzureAD":{"LoginEndpoint":"https://login.contoso.com","LoginMfaRequired":true,"KustoClientAppId":"app","KustoClientRedirectUri":"uri","KustoServiceResourceId":"https://cluster.kusto.windows.net","FirstPartyAuthorityUrl":"fp"}}`)
	}))
	defer srv.Close()

	ci, err := GetMetadata(context.Background(), srv.URL, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "https://login.contoso.com", ci.LoginEndpoint)
	assert.True(t, ci.LoginMfaRequired)
	assert.Equal(t, "https://cluster.kusto.windows.net", ci.KustoServiceResourceID)

	// second call is served from the cache
	srv.Close()
	again, err := GetMetadata(context.Background(), srv.URL, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, ci, again)
}
