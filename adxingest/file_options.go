package adxingest

import (
	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxingest/internal/properties"
	"github.com/google/uuid"
)

// DataFormat is the format of the source data.
type DataFormat = properties.DataFormat

// ValidationPolicy controls server-side validation of the ingested data.
type ValidationPolicy = properties.ValidationPolicy

const (
	// DFUnknown indicates the DataFormat is not set.
	DFUnknown = properties.DFUnknown
	// CSV indicates the source is encoded in comma separated values.
	CSV = properties.CSV
	// JSON indicates the source is encoded in JavaScript Object Notation.
	JSON = properties.JSON
	// AVRO indicates the source is encoded in Apache Avro format.
	AVRO = properties.AVRO
	// Parquet indicates the source is encoded in Apache Parquet format.
	Parquet = properties.Parquet
	// ORC indicates the source is encoded in Apache Optimized Row Columnar format.
	ORC = properties.ORC
	// PSV is pipe "|" separated values.
	PSV = properties.PSV
	// Raw is a text file that has only a single string value.
	Raw = properties.Raw
	// SCSV is a file containing semicolon ";" separated values.
	SCSV = properties.SCSV
	// SOHSV is a file containing SOH-separated values (ASCII codepoint 1).
	SOHSV = properties.SOHSV
	// TSV is a file containing tab separated values ("\t").
	TSV = properties.TSV
	// TXT is a text file with lines delimited by "\n".
	TXT = properties.TXT
)

// FileOption is an optional argument to FromFile, FromReader and FromBlob.
type FileOption func(p *properties.All) error

// FileFormat sets the format of the source data. When not set, the format is derived
// from the source name's extension, defaulting to CSV.
func FileFormat(et DataFormat) FileOption {
	return func(p *properties.All) error {
		p.Ingestion.Additional.Format = et
		return nil
	}
}

// IngestionMapping provides an inline ingestion mapping for the data.
func IngestionMapping(mapping string, kind DataFormat) FileOption {
	return func(p *properties.All) error {
		p.Ingestion.Additional.IngestionMapping = mapping
		p.Ingestion.Additional.IngestionMappingType = kind
		return nil
	}
}

// IngestionMappingRef references an ingestion mapping previously created on the table.
func IngestionMappingRef(ref string, kind DataFormat) FileOption {
	return func(p *properties.All) error {
		p.Ingestion.Additional.IngestionMappingRef = ref
		p.Ingestion.Additional.IngestionMappingType = kind
		return nil
	}
}

// FlushImmediately bypasses the service's aggregation window.
func FlushImmediately() FileOption {
	return func(p *properties.All) error {
		p.Ingestion.FlushImmediately = true
		return nil
	}
}

// IgnoreSizeLimit lifts the service's size limit on a single source.
func IgnoreSizeLimit() FileOption {
	return func(p *properties.All) error {
		p.Ingestion.IgnoreSizeLimit = true
		return nil
	}
}

// DeleteSource deletes the local source file after it has been consumed.
func DeleteSource() FileOption {
	return func(p *properties.All) error {
		p.Source.DeleteLocalSource = true
		return nil
	}
}

// DontCompress suppresses gzip compression of the uploaded data.
func DontCompress() FileOption {
	return func(p *properties.All) error {
		p.Source.DontCompress = true
		return nil
	}
}

// Tags associates the listed tags with the ingested data.
func Tags(tags []string) FileOption {
	return func(p *properties.All) error {
		p.Ingestion.Additional.Tags = tags
		return nil
	}
}

// IfNotExists prevents the ingestion when the table already holds data tagged with an
// ingest-by: tag of the same value.
func IfNotExists(ingestByTag string) FileOption {
	return func(p *properties.All) error {
		p.Ingestion.Additional.IngestIfNotExists = ingestByTag
		return nil
	}
}

// WithValidationPolicy tells the service what validations to run on the data.
func WithValidationPolicy(policy ValidationPolicy) FileOption {
	return func(p *properties.All) error {
		p.Ingestion.Additional.ValidationPolicy = &policy
		return nil
	}
}

// ReportResultToTable reports both failures and successes to the status table. Turning
// this on makes Result.Wait poll until the service reports a final status; leave it off
// for high-volume ingestion streams.
func ReportResultToTable() FileOption {
	return func(p *properties.All) error {
		p.Ingestion.ReportLevel = properties.ReportAll
		p.Ingestion.ReportMethod = properties.ReportStatusToTable
		return nil
	}
}

// SourceID sets the unique id of the source, which status reports are keyed by. Generated
// when not provided.
func SourceID(id uuid.UUID) FileOption {
	return func(p *properties.All) error {
		if id == uuid.Nil {
			return errors.ES(errors.OpIngest, errors.KClientArgs, "the source id cannot be a zero value UUID")
		}
		p.Source.ID = id
		p.Ingestion.ID = id
		return nil
	}
}
