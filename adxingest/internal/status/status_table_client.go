// Package status reads and writes ingestion status records in the service's status table.
package status

import (
	"github.com/Azure/azure-sdk-for-go/storage"
	"github.com/adx-client/adx-go/adxingest/internal/resources"
	"github.com/google/uuid"
)

const (
	defaultTimeout = 10000
	fullMetadata   = "application/json;odata=fullmetadata"
)

// TableClient reads and writes entities in an azure table.
type TableClient struct {
	tableURI resources.URI
	client   storage.Client
	service  storage.TableServiceClient
	table    *storage.Table
}

// NewTableClient creates a table client from a status table resource URI.
func NewTableClient(uri resources.URI) (*TableClient, error) {
	c, err := storage.NewAccountSASClientFromEndpointToken(uri.ServiceURI(), uri.SAS())
	if err != nil {
		return nil, err
	}

	ts := c.GetTableService()

	return &TableClient{
		tableURI: uri,
		client:   c,
		service:  ts,
		table:    ts.GetTableReference(uri.ObjectName()),
	}, nil
}

// ReadIngestionStatus reads the table record for an ingestion source.
func (c *TableClient) ReadIngestionStatus(ingestionSourceID uuid.UUID) (map[string]interface{}, error) {
	entity := c.table.GetEntityReference(ingestionSourceID.String(), "0")

	if err := entity.Get(defaultTimeout, fullMetadata, nil); err != nil {
		return nil, err
	}

	return entity.Properties, nil
}

// WriteIngestionStatus writes the table record for an ingestion source.
func (c *TableClient) WriteIngestionStatus(ingestionSourceID uuid.UUID, data map[string]interface{}) error {
	entity := c.table.GetEntityReference(ingestionSourceID.String(), "0")
	entity.Properties = data

	options := &storage.EntityOptions{}
	options.Timeout = defaultTimeout

	return entity.InsertOrReplace(options)
}
