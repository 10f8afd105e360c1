package query

import (
	"context"

	"github.com/adx-client/adx-go/adxdata/errors"
)

// Dataset is the common surface of every query result, materialized or streamed.
type Dataset interface {
	Context() context.Context
	Op() errors.Op
}

// FullDataset is a fully materialized result, all tables decoded and held in memory.
type FullDataset interface {
	Dataset
	Tables() []Table
	// PrimaryResults returns only the tables that carry query output.
	PrimaryResults() []Table
}

// IterativeDataset streams tables as they are decoded. Tables must be consumed in order;
// reading a later table discards the rows of the previous one.
type IterativeDataset interface {
	Dataset
	Tables() <-chan TableResult
	// ToFullDataset drains the stream and materializes it.
	ToFullDataset() (FullDataset, error)
	// Close abandons the stream and releases the underlying connection.
	Close() error
}

// dataset is a basic implementation of Dataset, to be used by specific implementations.
type dataset struct {
	ctx context.Context
	op  errors.Op
}

func NewDataset(ctx context.Context, op errors.Op) Dataset {
	return &dataset{
		ctx: ctx,
		op:  op,
	}
}

func (d *dataset) Context() context.Context {
	return d.ctx
}

func (d *dataset) Op() errors.Op {
	return d.op
}
