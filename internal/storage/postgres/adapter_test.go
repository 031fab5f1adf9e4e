package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
)

func TestAdapter_QueryObserved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewAdapterFromDB(db)
	var seen []string
	adapter.SetQueryObserver(func(name string, d time.Duration, rows int, err error) {
		seen = append(seen, fmt.Sprintf("%s:%d:%t", name, rows, err == nil))
	})

	mock.ExpectQuery(`SELECT key, value`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("timeout", []byte("20")).AddRow("user", "admin"))
	mock.ExpectQuery(`SELECT key, value`).WillReturnError(errors.New("broken pipe"))

	rows, err := adapter.Query(context.Background(), "options", `SELECT key, value FROM options`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "20", rows[0]["value"])

	_, err = adapter.Query(context.Background(), "options", `SELECT key, value FROM options`)
	assert.True(t, errors.Is(err, common.ErrConnection))

	assert.Equal(t, []string{"options:2:true", "options:0:false"}, seen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_QueryCancelled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock.ExpectQuery(`SELECT 1`).WillReturnError(context.Canceled)

	_, err = NewAdapterFromDB(db).Query(ctx, "probe", `SELECT 1`)
	assert.True(t, errors.Is(err, common.ErrTimeout))
}
