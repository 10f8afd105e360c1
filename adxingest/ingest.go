// Package adxingest queues data for ingestion into a cluster. Data can come from an
// existing blob, a local file or any io.Reader; either way the data ends up in blob
// storage and an ingestion message pointing at it is posted to one of the cluster's
// aggregation queues.
package adxingest

import (
	"context"
	"io"

	"github.com/adx-client/adx-go/adxingest/internal/properties"
	"github.com/adx-client/adx-go/adxingest/internal/queued"
	"github.com/adx-client/adx-go/adxingest/internal/resources"
	"github.com/google/uuid"
)

// Ingestion provides queued ingestion into a single database and table. The client it is
// built over must target the cluster's ingestion endpoint (https://ingest-<cluster>...).
type Ingestion struct {
	db    string
	table string

	client QueryClient
	mgr    *resources.Manager
	fs     queued.Queued
}

// Option is an optional argument to New.
type Option func(i *Ingestion) error

// WithStaticBuffer sets a static buffer size and buffer count for uploads.
func WithStaticBuffer(bufferSize int, maxBuffers int) Option {
	return func(i *Ingestion) error {
		fs, err := queued.New(i.db, i.table, i.mgr, queued.WithStaticBuffer(bufferSize, maxBuffers))
		if err != nil {
			return err
		}
		i.fs = fs
		return nil
	}
}

// New returns an Ingestion client for the given database and table.
func New(client QueryClient, db, table string, options ...Option) (*Ingestion, error) {
	mgr := resources.New(client)

	fs, err := queued.New(db, table, mgr)
	if err != nil {
		return nil, err
	}

	i := &Ingestion{
		db:     db,
		table:  table,
		client: client,
		mgr:    mgr,
		fs:     fs,
	}

	for _, opt := range options {
		if err := opt(i); err != nil {
			return nil, err
		}
	}

	return i, nil
}

// newProp generates the source id up front so the ingestion message and the status
// record share it. The SourceID option and BlobDescriptor.SourceID override it.
func (i *Ingestion) newProp() properties.All {
	sourceID := uuid.New()
	return properties.All{
		Ingestion: properties.Ingestion{
			ID:           sourceID,
			DatabaseName: i.db,
			TableName:    i.table,
		},
		Source: properties.SourceOptions{
			ID: sourceID,
		},
	}
}

func (i *Ingestion) applyOptions(props *properties.All, options []FileOption) error {
	for _, opt := range options {
		if err := opt(props); err != nil {
			return err
		}
	}
	return nil
}

// FromFile ingests a local file, or a blob when fPath is an http(s) URL. Local files are
// gzip compressed (unless already compressed or DontCompress was given) and uploaded to
// temp storage first.
func (i *Ingestion) FromFile(ctx context.Context, fPath string, options ...FileOption) (*Result, error) {
	result := newResult()

	props := i.newProp()
	if err := i.applyOptions(&props, options); err != nil {
		return nil, err
	}

	local, err := queued.IsLocalPath(fPath)
	if err != nil {
		return nil, err
	}

	if !local {
		return i.fromBlobPath(ctx, fPath, 0, props, result)
	}

	props.Source.OriginalSource = fPath
	result.putProps(props)

	if err := i.fs.Local(ctx, fPath, props); err != nil {
		return nil, err
	}

	return result.putQueued(ctx, i.mgr), nil
}

// FromReader ingests data from reader. The data is uploaded to temp storage first; use
// FromFile or FromBlob when the data already has a home the service can read from.
func (i *Ingestion) FromReader(ctx context.Context, reader io.Reader, options ...FileOption) (*Result, error) {
	result := newResult()

	props := i.newProp()
	if err := i.applyOptions(&props, options); err != nil {
		return nil, err
	}

	result.putProps(props)

	if _, err := i.fs.Reader(ctx, reader, props); err != nil {
		return nil, err
	}

	return result.putQueued(ctx, i.mgr), nil
}

// FromBlob ingests data already sitting in a blob the service can read.
func (i *Ingestion) FromBlob(ctx context.Context, desc BlobDescriptor, options ...FileOption) (*Result, error) {
	result := newResult()

	props := i.newProp()
	if err := i.applyOptions(&props, options); err != nil {
		return nil, err
	}

	if desc.SourceID != uuid.Nil {
		props.Source.ID = desc.SourceID
		props.Ingestion.ID = desc.SourceID
	}

	return i.fromBlobPath(ctx, desc.URL(), desc.Size, props, result)
}

func (i *Ingestion) fromBlobPath(ctx context.Context, path string, size int64, props properties.All, result *Result) (*Result, error) {
	result.putProps(props)

	if err := i.fs.Blob(ctx, path, size, props); err != nil {
		return nil, err
	}

	return result.putQueued(ctx, i.mgr), nil
}

// Close releases the client's resources.
func (i *Ingestion) Close() error {
	err := i.fs.Close()
	if cerr := i.client.Close(); err == nil {
		err = cerr
	}
	return err
}

type blobAuthKind int8

const (
	blobAuthNone blobAuthKind = iota
	blobAuthSAS
	blobAuthUserManagedIdentity
	blobAuthSystemManagedIdentity
)

// BlobAuth tells the service how to authorize its read of a blob.
type BlobAuth struct {
	kind  blobAuthKind
	value string
}

// SasToken authorizes via a shared access signature appended to the blob URL.
func SasToken(token string) BlobAuth {
	return BlobAuth{kind: blobAuthSAS, value: token}
}

// UserAssignedManagedIdentity authorizes via the user-assigned managed identity with the
// given object id.
func UserAssignedManagedIdentity(objectID string) BlobAuth {
	return BlobAuth{kind: blobAuthUserManagedIdentity, value: objectID}
}

// SystemAssignedManagedIdentity authorizes via the cluster's system-assigned managed
// identity.
func SystemAssignedManagedIdentity() BlobAuth {
	return BlobAuth{kind: blobAuthSystemManagedIdentity}
}

// BlobDescriptor points at a blob to ingest.
type BlobDescriptor struct {
	// URI is the blob's URI without any auth suffix.
	URI string
	// Size is the raw data size, when known. It helps the service plan aggregation.
	Size int64
	// SourceID keys status reports for this ingestion. Generated when left as the zero
	// UUID.
	SourceID uuid.UUID
	// Auth describes how the service authorizes its read of the blob. The zero value
	// passes the URI through unchanged.
	Auth BlobAuth
}

// URL renders the blob URI with its auth suffix.
func (b BlobDescriptor) URL() string {
	switch b.Auth.kind {
	case blobAuthSAS:
		return b.URI + "?" + b.Auth.value
	case blobAuthUserManagedIdentity:
		return b.URI + ";managed_identity=" + b.Auth.value
	case blobAuthSystemManagedIdentity:
		return b.URI + ";managed_identity=system"
	}
	return b.URI
}
