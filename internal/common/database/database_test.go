// internal/common/database/database_test.go
package database

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"investor-match-workers/internal/common/config"
	apperrors "investor-match-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	client := NewPostgresFromDB(db)
	mock.ExpectPing()
	assert.NoError(t, client.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	std := apperrors.Normalize(client.Ping(context.Background()))
	assert.Equal(t, apperrors.ErrCodeDatabaseConnectionFailed, std.Code)
	assert.True(t, std.Retryable)
	assert.Contains(t, std.Details, "postgres ping failed: down")

	mock.ExpectClose()
	assert.NoError(t, client.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPing(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	std := apperrors.Normalize(client.Ping(context.Background()))
	assert.Equal(t, apperrors.ErrCodeDatabaseConnectionFailed, std.Code)
	assert.Contains(t, std.Details, "redis ping failed")

	_, err = NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestElasticsearchPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewElasticsearch(config.ElasticsearchConfig{URL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestCheckAll_ReportsConnectionDetails(t *testing.T) {
	failures := CheckAll(context.Background(), time.Second, map[string]Pinger{
		"postgres": stubPinger{err: apperrors.NewDatabaseConnectionFailedError(errors.New("postgres ping failed: refused"))},
	})
	assert.EqualError(t, failures["postgres"], "postgres: postgres ping failed: refused")
}

func TestCheckAll(t *testing.T) {
	failures := CheckAll(context.Background(), time.Second, map[string]Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: errors.New("refused")},
		"search":   nil,
	})

	require.Len(t, failures, 1)
	assert.EqualError(t, failures["redis"], "redis: refused")
}
