package adxingest

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/adx-client/adx-go/adxingest/internal/properties"
	"github.com/adx-client/adx-go/adxingest/internal/resources"
	"github.com/adx-client/adx-go/adxingest/internal/status"
	"github.com/cenkalti/backoff/v4"
)

// Result lets callers track the state of an ingestion job.
type Result struct {
	record        StatusRecord
	tableClient   *status.TableClient
	reportToTable bool
}

func newResult() *Result {
	return &Result{record: newStatusRecord()}
}

// putErr sets the record to a client failure state.
func (r *Result) putErr(err error) *Result {
	return r.putErrStr(err.Error())
}

func (r *Result) putErrStr(err string) *Result {
	r.record.Status = ClientError
	r.record.FailureStatus = Permanent
	r.record.Details = err

	return r
}

// putProps fills in the record from the ingestion properties.
func (r *Result) putProps(props properties.All) *Result {
	r.reportToTable = props.Ingestion.ReportMethod == properties.ReportStatusToTable ||
		props.Ingestion.ReportMethod == properties.ReportStatusToQueueAndTable
	r.record.FromProps(props)

	return r
}

// putQueued sets the initial success status. When table reporting was requested it also
// writes the initial Pending record and keeps a table client for polling.
func (r *Result) putQueued(ctx context.Context, mgr *resources.Manager) *Result {
	if !r.reportToTable {
		r.record.Status = Queued
		return r
	}

	resc, err := mgr.Resources(ctx)
	if err != nil {
		r.record.Status = StatusRetrievalFailed
		r.record.FailureStatus = Transient
		r.record.Details = "failed getting the status table URI: " + err.Error()
		return r
	}

	if len(resc.Tables) == 0 {
		r.record.Status = StatusRetrievalFailed
		r.record.FailureStatus = Transient
		r.record.Details = "ingestion resources do not include a status table URI"
		return r
	}

	client, err := status.NewTableClient(*resc.Tables[0])
	if err != nil {
		r.record.Status = StatusRetrievalFailed
		r.record.FailureStatus = Transient
		r.record.Details = "failed creating a status table client: " + err.Error()
		return r
	}

	r.record.Status = Pending
	if err := client.WriteIngestionStatus(r.record.IngestionSourceID, r.record.ToMap()); err != nil {
		r.putErr(err)
	} else {
		r.tableClient = client
	}

	return r
}

// Wait returns a channel that yields the final StatusRecord. Without the table reporting
// option the record arrives immediately with the Queued status; with it, the status table
// is polled until the service reports a final state or ctx is canceled.
func (r *Result) Wait(ctx context.Context) chan StatusRecord {
	ch := make(chan StatusRecord, 1)

	go func() {
		defer close(ch)

		if !r.record.Status.IsFinal() && r.reportToTable {
			r.poll(ctx)
		}

		ch <- r.record
	}()

	return ch
}

var errStatusNotFinal = stderrors.New("ingestion status is not final yet")

func (r *Result) poll(ctx context.Context) {
	if r.tableClient == nil {
		return
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		smap, err := r.tableClient.ReadIngestionStatus(r.record.IngestionSourceID)
		if err != nil {
			r.record.Status = StatusRetrievalFailed
			r.record.FailureStatus = Transient
			r.record.Details = "failed reading from the status table: " + err.Error()
			return backoff.Permanent(err)
		}

		r.record.FromMap(smap)
		if r.record.Status.IsFinal() {
			return nil
		}
		return errStatusNotFinal
	}, backoff.WithContext(bo, ctx))

	if err != nil && ctx.Err() != nil {
		r.record.Status = StatusRetrievalCanceled
		r.record.FailureStatus = Transient
	}
}
