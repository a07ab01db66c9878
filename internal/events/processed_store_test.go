package events

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessedStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := newProcessedStoreWithExec(mock)

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("intake-worker", "evt-1").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	ok, err := store.MarkProcessed(context.Background(), "intake-worker", "evt-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("intake-worker", "evt-1").WillReturnResult(pgxmock.NewResult("INSERT", 0))
	ok, err = store.MarkProcessed(context.Background(), "intake-worker", "evt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("intake-worker", "evt-2").WillReturnError(errors.New("conn reset"))
	_, err = store.MarkProcessed(context.Background(), "intake-worker", "evt-2")
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryDeduper(t *testing.T) {
	d := NewMemoryDeduper()
	ctx := context.Background()

	ok, _ := d.MarkProcessed(ctx, "a", "evt")
	assert.True(t, ok)
	ok, _ = d.MarkProcessed(ctx, "a", "evt")
	assert.False(t, ok)
	ok, _ = d.MarkProcessed(ctx, "b", "evt")
	assert.True(t, ok)
}
