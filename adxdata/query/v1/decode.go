// Package v1 decodes the service's v1 response body, a single JSON object carrying every
// table at once. The management endpoint only speaks v1.
package v1

import (
	"bufio"
	"bytes"
	"io"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/goccy/go-json"
)

// RowOrErrors is one element of a table's Rows array: either an array of column values or
// an object carrying row-level exceptions.
type RowOrErrors struct {
	Row    []interface{}
	Errors []string
}

func (r *RowOrErrors) UnmarshalJSON(data []byte) error {
	var row []interface{}
	var exceptions struct {
		Exceptions []string `json:"Exceptions"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&row); err != nil {
		if err := json.Unmarshal(data, &exceptions); err != nil {
			return err
		}
		r.Errors = exceptions.Exceptions
		return nil
	}
	r.Row = row
	return nil
}

// RawColumn carries both naming schemes the v1 protocol uses: ColumnType ("long") and the
// CLR DataType ("System.Int64"). Either may be empty.
type RawColumn struct {
	ColumnName string `json:"ColumnName"`
	DataType   string `json:"DataType"`
	ColumnType string `json:"ColumnType"`
}

type RawTable struct {
	TableName string        `json:"TableName"`
	Columns   []RawColumn   `json:"Columns"`
	Rows      []RowOrErrors `json:"Rows"`
}

// V1 is the whole response body.
type V1 struct {
	Tables     []RawTable `json:"Tables"`
	Exceptions []string   `json:"Exceptions"`
}

func decodeV1(data io.Reader) (*V1, error) {
	br := bufio.NewReader(data)
	peek, err := br.Peek(1)
	if err != nil {
		return nil, errors.E(errors.OpMgmt, errors.KIO, err)
	}
	if peek[0] != '{' {
		all, err := io.ReadAll(br)
		if err != nil {
			return nil, errors.E(errors.OpMgmt, errors.KIO, err)
		}
		return nil, errors.ES(errors.OpMgmt, errors.KHTTPError, "got error: %s", string(all))
	}

	var v1 V1
	dec := json.NewDecoder(br)
	dec.UseNumber()
	if err := dec.Decode(&v1); err != nil {
		return nil, errors.E(errors.OpMgmt, errors.KInternal, err)
	}
	return &v1, nil
}
