package adxingest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeIsFinal(t *testing.T) {
	assert.False(t, Pending.IsFinal())
	assert.True(t, Succeeded.IsFinal())
	assert.True(t, Failed.IsFinal())
	assert.True(t, Queued.IsFinal())
}

func TestStatusRecordMapRoundTrip(t *testing.T) {
	id := uuid.New()
	rec := newStatusRecord()
	rec.Status = Pending
	rec.IngestionSourceID = id
	rec.IngestionSourcePath = "https://s.blob.core.windows.net/c/b"
	rec.Database = "db"
	rec.Table = "table"
	rec.UpdatedOn = time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)

	got := newStatusRecord()
	got.FromMap(rec.ToMap())

	assert.Equal(t, Pending, got.Status)
	assert.Equal(t, id, got.IngestionSourceID)
	assert.Equal(t, "https://s.blob.core.windows.net/c/b", got.IngestionSourcePath)
	assert.Equal(t, "db", got.Database)
	assert.Equal(t, "table", got.Table)
	assert.Equal(t, rec.UpdatedOn, got.UpdatedOn)
}

func TestStatusRecordFromMapServiceFields(t *testing.T) {
	opID := uuid.New()
	rec := newStatusRecord()
	rec.FromMap(map[string]interface{}{
		"Status":                     "Failed",
		"OperationId":                opID.String(),
		"ErrorCode":                  "BadRequest",
		"FailureStatus":              "Permanent",
		"Details":                    "something broke",
		"OriginatesFromUpdatePolicy": "TRUE",
	})

	assert.Equal(t, Failed, rec.Status)
	assert.Equal(t, opID, rec.OperationID)
	assert.Equal(t, "BadRequest", rec.ErrorCode)
	assert.Equal(t, Permanent, rec.FailureStatus)
	assert.True(t, rec.OriginatesFromUpdatePolicy)
}

func TestStatusRecordToError(t *testing.T) {
	rec := newStatusRecord()

	rec.Status = Succeeded
	assert.NoError(t, rec.ToError())

	rec.Status = Queued
	assert.NoError(t, rec.ToError())

	rec.Status = PartiallySucceeded
	require.Error(t, rec.ToError())
	assert.Contains(t, rec.ToError().Error(), "partially")

	rec.Status = Failed
	rec.Details = "boom"
	require.Error(t, rec.ToError())
	assert.Contains(t, rec.ToError().Error(), "boom")
}
