// Package queued takes data from local files, readers or existing blobs and runs it
// through queued ingestion: upload to temp storage when needed, then post the ingestion
// message to an aggregation queue.
package queued

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-storage-queue-go/azqueue"
	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxingest/internal/gzip"
	"github.com/adx-client/adx-go/adxingest/internal/properties"
	"github.com/adx-client/adx-go/adxingest/internal/resources"
	"github.com/google/uuid"
)

const _1MiB = 1024 * 1024

const (
	// BlockSize is the upload block size. Larger blocks mean fewer round trips for big
	// sources.
	BlockSize = 8 * _1MiB
	// Concurrency is the number of blocks uploaded in parallel.
	Concurrency = 50
)

// Queued provides methods for taking data from various sources and running it through
// queued ingestion. This object is scoped to a single database and table.
type Queued interface {
	io.Closer
	Local(ctx context.Context, from string, props properties.All) error
	Reader(ctx context.Context, reader io.Reader, props properties.All) (string, error)
	Blob(ctx context.Context, from string, fileSize int64, props properties.All) error
}

// The indirections below exist so tests can run the full message path without storage
// accounts behind them.
type (
	uploadStreamFunc func(ctx context.Context, container *resources.URI, blobName string, body io.Reader) error
	uploadFileFunc   func(ctx context.Context, container *resources.URI, blobName string, file *os.File) error
	enqueueFunc      func(ctx context.Context, queue *resources.URI, message string) error
)

// Ingestion implements Queued.
type Ingestion struct {
	db    string
	table string
	mgr   *resources.Manager

	uploadStream uploadStreamFunc
	uploadFile   uploadFileFunc
	enqueue      enqueueFunc

	bufferSize int
	maxBuffers int
}

// Option is an optional argument to New.
type Option func(i *Ingestion)

// WithStaticBuffer sets a static buffer size and buffer count for stream uploads.
func WithStaticBuffer(bufferSize int, maxBuffers int) Option {
	return func(i *Ingestion) {
		i.bufferSize = bufferSize
		i.maxBuffers = maxBuffers
	}
}

// New is the constructor for Ingestion.
func New(db, table string, mgr *resources.Manager, options ...Option) (*Ingestion, error) {
	i := &Ingestion{
		db:    db,
		table: table,
		mgr:   mgr,
	}

	for _, opt := range options {
		opt(i)
	}

	blockSize := int64(BlockSize)
	concurrency := Concurrency
	if i.bufferSize > 0 {
		blockSize = int64(i.bufferSize)
	}
	if i.maxBuffers > 0 {
		concurrency = i.maxBuffers
	}

	i.uploadStream = func(ctx context.Context, container *resources.URI, blobName string, body io.Reader) error {
		client, err := blobClient(container)
		if err != nil {
			return err
		}
		_, err = client.UploadStream(ctx, container.ObjectName(), blobName, body, &azblob.UploadStreamOptions{
			BlockSize:   blockSize,
			Concurrency: concurrency,
		})
		return err
	}
	i.uploadFile = func(ctx context.Context, container *resources.URI, blobName string, file *os.File) error {
		client, err := blobClient(container)
		if err != nil {
			return err
		}
		_, err = client.UploadFile(ctx, container.ObjectName(), blobName, file, &azblob.UploadFileOptions{
			BlockSize:   blockSize,
			Concurrency: uint16(concurrency),
		})
		return err
	}
	i.enqueue = enqueueMessage

	return i, nil
}

func blobClient(container *resources.URI) (*azblob.Client, error) {
	client, err := azblob.NewClientWithNoCredential(container.ServiceURI()+"?"+container.SAS(), nil)
	if err != nil {
		return nil, errors.E(errors.OpIngest, errors.KBlobstore, err)
	}
	return client, nil
}

func enqueueMessage(ctx context.Context, queue *resources.URI, message string) error {
	service, err := url.Parse(queue.ServiceURI() + "?" + queue.SAS())
	if err != nil {
		return errors.E(errors.OpIngest, errors.KBlobstore, err)
	}

	p := azqueue.NewPipeline(azqueue.NewAnonymousCredential(), azqueue.PipelineOptions{})
	messages := azqueue.NewServiceURL(*service, p).NewQueueURL(queue.ObjectName()).NewMessagesURL()

	if _, err := messages.Enqueue(ctx, message, 0, 0); err != nil {
		return errors.E(errors.OpIngest, errors.KBlobstore, err)
	}
	return nil
}

// Local uploads a local file to temp storage and ingests it.
func (i *Ingestion) Local(ctx context.Context, from string, props properties.All) error {
	container, err := i.mgr.PickContainer(ctx)
	if err != nil {
		return err
	}

	// Check the queues up front so we don't upload a file and then find there is no
	// queue to post the message to.
	if _, err := i.mgr.PickQueue(ctx); err != nil {
		return err
	}

	blobURL, size, err := i.localToBlob(ctx, from, container, &props)
	if err != nil {
		return err
	}

	return i.Blob(ctx, blobURL, size, props)
}

// Reader uploads data from an io.Reader to temp storage and ingests it. On success it
// returns the name of the created blob.
func (i *Ingestion) Reader(ctx context.Context, reader io.Reader, props properties.All) (string, error) {
	container, err := i.mgr.PickContainer(ctx)
	if err != nil {
		return "", err
	}

	if _, err := i.mgr.PickQueue(ctx); err != nil {
		return "", err
	}

	compress := shouldCompress(props)

	extension := "gz"
	if !compress {
		if props.Source.OriginalSource != "" {
			extension = strings.TrimPrefix(filepath.Ext(props.Source.OriginalSource), ".")
		} else {
			extension = props.Ingestion.Additional.Format.String()
		}
	}

	blobName := fmt.Sprintf("%s_%s_%s_%s.%s", i.db, i.table, nower().Format(time.RFC3339Nano), uuid.NewString(), extension)

	size := int64(0)
	if compress {
		reader = gzip.Compress(reader)
	}

	if err := i.uploadStream(ctx, container, blobName, reader); err != nil {
		return blobName, errors.ES(errors.OpIngest, errors.KBlobstore, "problem uploading to blob storage: %s", err)
	}

	if gz, ok := reader.(*gzip.Streamer); ok {
		size = gz.InputSize()
	}

	if err := i.Blob(ctx, blobURL(container, blobName), size, props); err != nil {
		return blobName, err
	}

	return blobName, nil
}

// Blob ingests data already sitting in a blob: it builds the ingestion message and posts
// it to an aggregation queue.
func (i *Ingestion) Blob(ctx context.Context, from string, fileSize int64, props properties.All) error {
	queue, err := i.mgr.PickQueue(ctx)
	if err != nil {
		return err
	}

	authContext, err := i.mgr.AuthContext(ctx)
	if err != nil {
		return err
	}

	props.Ingestion.BlobPath = from
	if fileSize != 0 {
		props.Ingestion.RawDataSize = fileSize
	}
	props.Ingestion.RetainBlobOnSuccess = !props.Source.DeleteLocalSource
	props.Ingestion.Additional.AuthContext = authContext

	CompleteFormatFromFileName(&props, from)

	message, err := props.Ingestion.MarshalJSONString()
	if err != nil {
		return errors.ES(errors.OpIngest, errors.KClientInternal, "could not marshal the ingestion message: %s", err).SetNoRetry()
	}

	if err := i.enqueue(ctx, queue, message); err != nil {
		return err
	}

	return props.ApplyDeleteLocalSourceOption()
}

// CompleteFormatFromFileName fills in the data format from the source name when the
// caller did not set one. Unknown extensions default to CSV.
func CompleteFormatFromFileName(props *properties.All, from string) {
	if props.Ingestion.Additional.Format != properties.DFUnknown {
		return
	}

	format := properties.DataFormatDiscovery(from)
	if format == properties.DFUnknown {
		format = properties.CSV
	}
	props.Ingestion.Additional.Format = format
}

func shouldCompress(props properties.All) bool {
	if props.Source.DontCompress {
		return false
	}
	if props.Source.OriginalSource != "" {
		return CompressionDiscovery(props.Source.OriginalSource) == properties.CTNone
	}
	return true
}

var nower = time.Now

// localToBlob copies a local file into the temp storage container. It returns the blob's
// URL and the raw size of the uploaded data.
func (i *Ingestion) localToBlob(ctx context.Context, from string, container *resources.URI, props *properties.All) (string, int64, error) {
	compression := CompressionDiscovery(from)
	blobName := fmt.Sprintf("%s_%s_%s_%s_%s", i.db, i.table, nower().Format(time.RFC3339Nano), uuid.NewString(), filepath.Base(from))
	if compression == properties.CTNone && !props.Source.DontCompress {
		blobName += ".gz"
	}

	file, err := os.Open(from)
	if err != nil {
		return "", 0, errors.ES(errors.OpIngest, errors.KLocalFileSystem, "problem retrieving source file %q: %s", from, err).SetNoRetry()
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", 0, errors.ES(errors.OpIngest, errors.KLocalFileSystem, "could not Stat the file (%s): %s", from, err).SetNoRetry()
	}

	if compression == properties.CTNone && !props.Source.DontCompress {
		gstream := gzip.New()
		gstream.Reset(file)

		if err := i.uploadStream(ctx, container, blobName, gstream); err != nil {
			return "", 0, errors.ES(errors.OpIngest, errors.KBlobstore, "problem uploading to blob storage: %s", err)
		}
		return blobURL(container, blobName), gstream.InputSize(), nil
	}

	if err := i.uploadFile(ctx, container, blobName, file); err != nil {
		return "", 0, errors.ES(errors.OpIngest, errors.KBlobstore, "problem uploading to blob storage: %s", err)
	}
	return blobURL(container, blobName), stat.Size(), nil
}

func blobURL(container *resources.URI, blobName string) string {
	return container.ServiceURI() + "/" + container.ObjectName() + "/" + blobName
}

// CompressionDiscovery looks at the file extension. Unrecognized extensions report
// CTNone, meaning the source still needs compressing.
func CompressionDiscovery(fName string) properties.CompressionType {
	var ext string
	if strings.HasPrefix(strings.ToLower(fName), "http") {
		ext = strings.ToLower(filepath.Ext(path.Base(fName)))
	} else {
		ext = strings.ToLower(filepath.Ext(fName))
	}

	switch ext {
	case ".gz":
		return properties.GZIP
	case ".zip":
		return properties.ZIP
	}
	return properties.CTNone
}

var statFunc = os.Stat

// IsLocalPath reports whether a path points at the local filesystem rather than at a
// blob URL.
func IsLocalPath(s string) (bool, error) {
	u, err := url.Parse(s)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return false, nil
		}
	}

	stat, err := statFunc(s)
	if err != nil {
		return false, errors.ES(errors.OpIngest, errors.KLocalFileSystem, "%q is not a valid local file path (could not stat it) and not a valid blob path", s)
	}
	if stat.IsDir() {
		return false, errors.ES(errors.OpIngest, errors.KLocalFileSystem, "%q is a local directory, not a file", s)
	}

	return true, nil
}

func (i *Ingestion) Close() error {
	return nil
}
