package adxingest

import (
	"context"
	"io"

	"github.com/adx-client/adx-go/adxdata"
	"github.com/adx-client/adx-go/adxdata/query"
)

// QueryClient is the part of the data client the ingestion client relies on. Satisfied by
// *adxdata.Client pointed at the cluster's ingestion endpoint
// (https://ingest-<cluster>...).
type QueryClient interface {
	io.Closer
	Endpoint() string
	Mgmt(ctx context.Context, db string, statement adxdata.Statement, options ...adxdata.QueryOption) (query.FullDataset, error)
}
