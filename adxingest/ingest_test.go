package adxingest

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/adx-client/adx-go/adxdata"
	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/query"
	v1 "github.com/adx-client/adx-go/adxdata/query/v1"
	"github.com/adx-client/adx-go/adxingest/internal/properties"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	endpoint string
}

func (m mockClient) Endpoint() string { return m.endpoint }

func (m mockClient) Close() error { return nil }

func (m mockClient) Mgmt(ctx context.Context, db string, statement adxdata.Statement, _ ...adxdata.QueryOption) (query.FullDataset, error) {
	body := `{"Tables":[{"TableName":"Table_0","Columns":[{"ColumnName":"AuthorizationContext","ColumnType":"string"}],"Rows":[["authtoken"]]}]}`
	return v1.NewDatasetFromReader(ctx, errors.OpMgmt, io.NopCloser(strings.NewReader(body)))
}

// fakeQueued records the ingestion calls the client hands down.
type fakeQueued struct {
	from  string
	size  int64
	props properties.All
	err   error
}

func (f *fakeQueued) Close() error { return nil }

func (f *fakeQueued) Local(ctx context.Context, from string, props properties.All) error {
	f.from, f.props = from, props
	return f.err
}

func (f *fakeQueued) Reader(ctx context.Context, reader io.Reader, props properties.All) (string, error) {
	f.props = props
	return "blobname", f.err
}

func (f *fakeQueued) Blob(ctx context.Context, from string, fileSize int64, props properties.All) error {
	f.from, f.size, f.props = from, fileSize, props
	return f.err
}

func newTestClient(t *testing.T) (*Ingestion, *fakeQueued) {
	t.Helper()

	ingestion, err := New(mockClient{endpoint: "https://ingest-test.kusto.windows.net"}, "db", "table")
	require.NoError(t, err)

	fake := &fakeQueued{}
	ingestion.fs = fake
	return ingestion, fake
}

func TestBlobDescriptorURL(t *testing.T) {
	tests := []struct {
		desc string
		auth BlobAuth
		want string
	}{
		{
			desc: "no auth passes the URI through",
			want: "https://s.blob.core.windows.net/c/b",
		},
		{
			desc: "sas token",
			auth: SasToken("sig=abc"),
			want: "https://s.blob.core.windows.net/c/b?sig=abc",
		},
		{
			desc: "user assigned managed identity",
			auth: UserAssignedManagedIdentity("1234"),
			want: "https://s.blob.core.windows.net/c/b;managed_identity=1234",
		},
		{
			desc: "system assigned managed identity",
			auth: SystemAssignedManagedIdentity(),
			want: "https://s.blob.core.windows.net/c/b;managed_identity=system",
		},
	}

	for _, test := range tests {
		desc := BlobDescriptor{URI: "https://s.blob.core.windows.net/c/b", Auth: test.auth}
		assert.Equal(t, test.want, desc.URL(), test.desc)
	}
}

func TestFromBlob(t *testing.T) {
	ingestion, fake := newTestClient(t)

	id := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	result, err := ingestion.FromBlob(context.Background(), BlobDescriptor{
		URI:      "https://s.blob.core.windows.net/c/b",
		Size:     123,
		SourceID: id,
		Auth:     SystemAssignedManagedIdentity(),
	}, FileFormat(JSON))
	require.NoError(t, err)

	assert.Equal(t, "https://s.blob.core.windows.net/c/b;managed_identity=system", fake.from)
	assert.Equal(t, int64(123), fake.size)
	assert.Equal(t, id, fake.props.Ingestion.ID)
	assert.Equal(t, "db", fake.props.Ingestion.DatabaseName)
	assert.Equal(t, "table", fake.props.Ingestion.TableName)
	assert.Equal(t, properties.JSON, fake.props.Ingestion.Additional.Format)

	record := <-result.Wait(context.Background())
	assert.Equal(t, Queued, record.Status)
	assert.NoError(t, record.ToError())
	assert.Equal(t, id, record.IngestionSourceID)
}

func TestFromReaderOptions(t *testing.T) {
	ingestion, fake := newTestClient(t)

	_, err := ingestion.FromReader(context.Background(), strings.NewReader("a,b"),
		FlushImmediately(),
		IngestionMappingRef("mapping", CSV),
		Tags([]string{"tag"}),
		IfNotExists("tag"),
		DontCompress(),
	)
	require.NoError(t, err)

	assert.True(t, fake.props.Ingestion.FlushImmediately)
	assert.Equal(t, "mapping", fake.props.Ingestion.Additional.IngestionMappingRef)
	assert.Equal(t, properties.CSV, fake.props.Ingestion.Additional.IngestionMappingType)
	assert.Equal(t, []string{"tag"}, fake.props.Ingestion.Additional.Tags)
	assert.Equal(t, "tag", fake.props.Ingestion.Additional.IngestIfNotExists)
	assert.True(t, fake.props.Source.DontCompress)
}

func TestFromFileBlobPath(t *testing.T) {
	ingestion, fake := newTestClient(t)

	_, err := ingestion.FromFile(context.Background(), "https://s.blob.core.windows.net/c/data.csv")
	require.NoError(t, err)

	assert.Equal(t, "https://s.blob.core.windows.net/c/data.csv", fake.from)
	assert.Equal(t, int64(0), fake.size)
}

func TestGeneratedSourceIDShared(t *testing.T) {
	ingestion, fake := newTestClient(t)

	result, err := ingestion.FromReader(context.Background(), strings.NewReader("a,b"))
	require.NoError(t, err)

	// Without an explicit SourceID the generated id must still key the message, the
	// source and the status record, or table-status polling looks up the wrong entity.
	require.NotEqual(t, uuid.Nil, fake.props.Ingestion.ID)
	assert.Equal(t, fake.props.Ingestion.ID, fake.props.Source.ID)

	record := <-result.Wait(context.Background())
	assert.Equal(t, fake.props.Ingestion.ID, record.IngestionSourceID)
}

func TestSourceIDOption(t *testing.T) {
	ingestion, fake := newTestClient(t)

	id := uuid.New()
	result, err := ingestion.FromReader(context.Background(), strings.NewReader("a,b"), SourceID(id))
	require.NoError(t, err)

	assert.Equal(t, id, fake.props.Ingestion.ID)
	record := <-result.Wait(context.Background())
	assert.Equal(t, id, record.IngestionSourceID)

	_, err = ingestion.FromReader(context.Background(), strings.NewReader("a,b"), SourceID(uuid.Nil))
	assert.Error(t, err)
}

func TestIngestionError(t *testing.T) {
	ingestion, fake := newTestClient(t)
	fake.err = errors.ES(errors.OpIngest, errors.KBlobstore, "enqueue failed")

	_, err := ingestion.FromBlob(context.Background(), BlobDescriptor{URI: "https://s.blob.core.windows.net/c/b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue failed")
}
