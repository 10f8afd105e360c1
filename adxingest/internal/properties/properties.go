// Package properties holds the ingestion message that gets serialized, base64 encoded and
// enqueued for the service to pick up, plus the source options the upload path needs.
package properties

import (
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// CompressionType is a file's compression type.
type CompressionType int8

const (
	// CTUnknown indicates that the compression type was unset.
	CTUnknown CompressionType = 0
	// CTNone indicates that the file was not compressed.
	CTNone CompressionType = 1
	// GZIP indicates that the file is GZIP compressed.
	GZIP CompressionType = 2
	// ZIP indicates that the file is ZIP compressed.
	ZIP CompressionType = 3
)

// String implements fmt.Stringer.
func (c CompressionType) String() string {
	switch c {
	case GZIP:
		return "gzip"
	case ZIP:
		return "zip"
	}
	return "unknown compression type"
}

// MarshalJSON implements json.Marshaler.
func (c CompressionType) MarshalJSON() ([]byte, error) {
	if c == 0 {
		return nil, fmt.Errorf("CTUnknown is an invalid compression type")
	}
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

// DataFormat indicates what type of encoding format was used for source data.
type DataFormat int

const (
	// DFUnknown indicates the DataFormat is not set.
	DFUnknown DataFormat = 0
	// CSV indicates the source is encoded in comma separated values.
	CSV DataFormat = 1
	// JSON indicates the source is encoded in JavaScript Object Notation.
	JSON DataFormat = 2
	// AVRO indicates the source is encoded in Apache Avro format.
	AVRO DataFormat = 3
	// Parquet indicates the source is encoded in Apache Parquet format.
	Parquet DataFormat = 4
	// ORC indicates the source is encoded in Apache Optimized Row Columnar format.
	ORC DataFormat = 5
	// PSV is pipe "|" separated values.
	PSV DataFormat = 6
	// Raw is a text file that has only a single string value.
	Raw DataFormat = 7
	// SCSV is a file containing semicolon ";" separated values.
	SCSV DataFormat = 8
	// SOHSV is a file containing SOH-separated values (ASCII codepoint 1).
	SOHSV DataFormat = 9
	// TSV is a file containing tab separated values ("\t").
	TSV DataFormat = 10
	// TXT is a text file with lines delimited by "\n".
	TXT DataFormat = 11
)

// String implements fmt.Stringer. The result doubles as the format's file extension.
func (d DataFormat) String() string {
	ext, err := dfToExt(d)
	if err != nil {
		return ""
	}
	return ext
}

// CamelCase returns the CamelCase rendering of the format name. The service matches the
// mapping kind against "Csv", not "csv", while the format field uses the lowercase form.
func (d DataFormat) CamelCase() string {
	cc, err := dfToCamel(d)
	if err != nil {
		return ""
	}
	return cc
}

// MarshalJSON implements json.Marshaler.
func (d DataFormat) MarshalJSON() ([]byte, error) {
	if d == 0 {
		return nil, fmt.Errorf("DFUnknown is an invalid data format")
	}
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

func dfToExt(d DataFormat) (string, error) {
	switch d {
	case CSV:
		return "csv", nil
	case JSON:
		return "json", nil
	case AVRO:
		return "avro", nil
	case Parquet:
		return "parquet", nil
	case ORC:
		return "orc", nil
	case PSV:
		return "psv", nil
	case Raw:
		return "raw", nil
	case SCSV:
		return "scsv", nil
	case SOHSV:
		return "sohsv", nil
	case TSV:
		return "tsv", nil
	case TXT:
		return "txt", nil
	default:
		return "", fmt.Errorf("DataFormat(%d) is not one we understand", int(d))
	}
}

func dfToCamel(d DataFormat) (string, error) {
	switch d {
	case CSV:
		return "Csv", nil
	case JSON:
		return "Json", nil
	case AVRO:
		return "Avro", nil
	case Parquet:
		return "Parquet", nil
	case ORC:
		return "Orc", nil
	case PSV:
		return "Psv", nil
	case Raw:
		return "Raw", nil
	case SCSV:
		return "Scsv", nil
	case SOHSV:
		return "Sohsv", nil
	case TSV:
		return "Tsv", nil
	case TXT:
		return "Txt", nil
	default:
		return "", fmt.Errorf("DataFormat(%d) is not one we understand", int(d))
	}
}

// DataFormatDiscovery derives the data format from a file name's extension. DFUnknown is
// returned when the extension is not one we recognize.
func DataFormatDiscovery(fName string) DataFormat {
	name := fName
	if strings.HasPrefix(strings.ToLower(fName), "http") {
		name = path.Base(fName)
	}
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".zip")))

	switch ext {
	case ".csv":
		return CSV
	case ".json", ".multijson":
		return JSON
	case ".avro":
		return AVRO
	case ".parquet":
		return Parquet
	case ".orc":
		return ORC
	case ".psv":
		return PSV
	case ".raw":
		return Raw
	case ".scsv":
		return SCSV
	case ".sohsv":
		return SOHSV
	case ".tsv":
		return TSV
	case ".txt":
		return TXT
	}
	return DFUnknown
}

// ReportLevel selects which ingestion outcomes the service reports.
type ReportLevel int

const (
	// ReportFailures reports failed ingestions only.
	ReportFailures ReportLevel = 0
	// ReportNone disables ingestion status reporting.
	ReportNone ReportLevel = 1
	// ReportAll reports both failed and successful ingestions.
	ReportAll ReportLevel = 2
)

// ReportMethod selects where the service writes ingestion status reports.
type ReportMethod int

const (
	// ReportStatusToQueue reports status to the ingestion status queues.
	ReportStatusToQueue ReportMethod = 0
	// ReportStatusToTable reports status to the ingestion status table.
	ReportStatusToTable ReportMethod = 1
	// ReportStatusToQueueAndTable reports status to both.
	ReportStatusToQueueAndTable ReportMethod = 2
)

// ValidationPolicy tells the ingestion action what validations to run on the data and what
// to do when one is violated.
type ValidationPolicy struct {
	ValidationOptions      int `json:"ValidationOptions"`
	ValidationImplications int `json:"ValidationImplications"`
}

// All holds the complete set of properties an ingestion call might use.
type All struct {
	// Ingestion is the message that gets enqueued for the service.
	Ingestion Ingestion
	// Source describes the local source the upload path is reading from.
	Source SourceOptions
}

// SourceOptions are options describing the source being uploaded.
type SourceOptions struct {
	// ID is the unique id of the source. Generated when left as the zero UUID.
	ID uuid.UUID

	// OriginalSource is the name of the original file or blob the data came from, when
	// known. Used for format and compression discovery.
	OriginalSource string

	// DeleteLocalSource indicates the local file should be deleted after it has been
	// consumed.
	DeleteLocalSource bool

	// DontCompress suppresses gzip compression of the uploaded data.
	DontCompress bool
}

// Ingestion is the JSON serializable message the aggregation queue carries.
type Ingestion struct {
	// ID is the unique UUID for this upload.
	ID uuid.UUID `json:"Id"`
	// BlobPath is the URI representing the blob, including any auth suffix.
	BlobPath string
	// DatabaseName is the name of the database the data will ingest into.
	DatabaseName string
	// TableName is the name of the table the data will ingest into.
	TableName string
	// RawDataSize is the size of the uncompressed source data, when known.
	RawDataSize int64 `json:",omitempty"`
	// RetainBlobOnSuccess indicates the source blob should not be deleted after a
	// successful ingestion.
	RetainBlobOnSuccess bool `json:",omitempty"`
	// FlushImmediately bypasses the service's aggregation window.
	FlushImmediately bool
	// IgnoreSizeLimit lifts the service's size limit on a single source.
	IgnoreSizeLimit bool `json:",omitempty"`
	// ReportLevel selects which outcomes get reported.
	ReportLevel ReportLevel `json:",omitempty"`
	// ReportMethod selects where outcomes get reported.
	ReportMethod ReportMethod `json:",omitempty"`
	// SourceMessageCreationTime is when this message was created.
	SourceMessageCreationTime time.Time  `json:",omitempty"`
	Additional                Additional `json:"AdditionalProperties"`
}

// Additional is the open-ended camelCase keyed part of the ingestion message.
type Additional struct {
	// AuthContext is the authorization string obtained from the identity token cache.
	AuthContext string `json:"authorizationContext,omitempty"`
	// IngestionMapping is a JSON string mapping the source data to the table's columns.
	IngestionMapping string `json:"ingestionMapping,omitempty"`
	// IngestionMappingRef names a mapping reference previously uploaded to the service.
	IngestionMappingRef string `json:"ingestionMappingReference,omitempty"`
	// IngestionMappingType is the format the mapping reference applies to.
	IngestionMappingType DataFormat `json:"ingestionMappingType,omitempty"`
	// ValidationPolicy controls server-side data validation.
	ValidationPolicy *ValidationPolicy `json:"validationPolicy,omitempty"`
	// Format is the data format of the source.
	Format DataFormat `json:"format,omitempty"`
	// Tags is a list of tags to associate with the ingested data.
	Tags []string `json:"tags,omitempty"`
	// IngestIfNotExists prevents ingestion when the table already has data tagged with
	// an ingest-by: tag of the same value.
	IngestIfNotExists string `json:"ingestIfNotExists,omitempty"`
}

// MarshalJSON implements json.Marshaler. The service matches the format field against the
// lowercase name but the mapping type against the CamelCase one, so the mapping type gets
// re-encoded after the struct marshal.
func (a Additional) MarshalJSON() ([]byte, error) {
	type additional2 Additional

	b, err := json.Marshal(additional2(a))
	if err != nil {
		return nil, err
	}

	m := map[string]interface{}{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}

	if _, ok := m["ingestionMappingType"]; ok {
		m["ingestionMappingType"] = a.IngestionMappingType.CamelCase()
	}

	return json.Marshal(m)
}

// MarshalJSONString marshals the message into the base64 encoded string the queue carries.
func (i Ingestion) MarshalJSONString() (string, error) {
	i = i.defaults()
	if err := i.validate(); err != nil {
		return "", err
	}

	j, err := json.Marshal(i)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(j), nil
}

// defaults fills in the values that can be auto-generated when unset.
func (i Ingestion) defaults() Ingestion {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}

	if i.SourceMessageCreationTime.IsZero() {
		i.SourceMessageCreationTime = time.Now().UTC()
	}

	return i
}

func (i Ingestion) validate() error {
	if i.ID == uuid.Nil {
		return fmt.Errorf("the ID cannot be a zero value UUID")
	}
	switch "" {
	case i.DatabaseName:
		return fmt.Errorf("the database name cannot be an empty string")
	case i.TableName:
		return fmt.Errorf("the table name cannot be an empty string")
	case i.Additional.AuthContext:
		return fmt.Errorf("the authorization context was an empty string, which is not allowed")
	case i.BlobPath:
		return fmt.Errorf("the BlobPath was not set")
	}
	return nil
}

// ApplyDeleteLocalSourceOption removes the local source file once it has been consumed,
// when the caller asked for that.
func (a All) ApplyDeleteLocalSourceOption() error {
	if a.Source.DeleteLocalSource && a.Source.OriginalSource != "" {
		if err := os.Remove(a.Source.OriginalSource); err != nil {
			return fmt.Errorf("could not delete local source %q: %w", a.Source.OriginalSource, err)
		}
	}
	return nil
}
