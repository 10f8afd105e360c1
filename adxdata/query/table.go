package query

import (
	"github.com/adx-client/adx-go/adxdata/errors"
)

// BaseTable is the metadata shared by all table flavors.
type BaseTable interface {
	Id() string
	Ordinal() int64
	Name() string
	Columns() []Column
	Kind() string
	ColumnByName(name string) Column
	IsPrimaryResult() bool
	Op() errors.Op
}

// Table is a fully materialized table. GetAllRows returns the rows alongside any errors
// the service interleaved into the result.
type Table interface {
	BaseTable
	GetAllRows() ([]Row, []error)
}

const PrimaryResultKind = "PrimaryResult"
const QueryPropertiesKind = "QueryProperties"
const QueryCompletionInformationKind = "QueryCompletionInformation"

// baseTable is a basic implementation of BaseTable, to be used by specific implementations.
type baseTable struct {
	dataSet       Dataset
	ordinal       int64
	id            string
	name          string
	kind          string
	columns       []Column
	columnsByName map[string]Column
}

func NewBaseTable(ds Dataset, ordinal int64, id string, name string, kind string, columns []Column) BaseTable {
	b := &baseTable{
		dataSet: ds,
		ordinal: ordinal,
		id:      id,
		name:    name,
		kind:    kind,
		columns: columns,
	}
	b.columnsByName = make(map[string]Column, len(columns))
	for _, c := range columns {
		b.columnsByName[c.Name()] = c
	}

	return b
}

func (t *baseTable) Id() string {
	return t.id
}

func (t *baseTable) Ordinal() int64 {
	return t.ordinal
}

func (t *baseTable) Name() string {
	return t.name
}

func (t *baseTable) Columns() []Column {
	return t.columns
}

func (t *baseTable) Kind() string {
	return t.kind
}

func (t *baseTable) ColumnByName(name string) Column {
	if c, ok := t.columnsByName[name]; ok {
		return c
	}
	return nil
}

func (t *baseTable) IsPrimaryResult() bool {
	return t.kind == PrimaryResultKind
}

func (t *baseTable) Op() errors.Op {
	set := t.dataSet
	if set == nil {
		return errors.OpUnknown
	}
	return set.Op()
}

type fullTable struct {
	BaseTable
	rows []Row
	errs []error
}

// NewFullTable creates a materialized table over already decoded rows.
func NewFullTable(base BaseTable, rows []Row, errs []error) Table {
	return &fullTable{
		BaseTable: base,
		rows:      rows,
		errs:      errs,
	}
}

func (t *fullTable) GetAllRows() ([]Row, []error) {
	return t.rows, t.errs
}
