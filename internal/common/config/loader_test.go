// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: investor-match-workers
  version: 1.2.0
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: startupai
    user: ${TEST_DB_USER}
  redis:
    address: localhost:6379
workers:
  rank-investors:
    enabled: true
    max_jobs_active: 8
  notify-investor-matches:
    enabled: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("TEST_DB_USER", "founder")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "founder", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, CandidateSourcePostgres, cfg.Matching.CandidateSource)
	assert.Equal(t, "investors", cfg.Matching.InvestorIndex)
	assert.Equal(t, 10*time.Minute, cfg.Matching.CacheTTL())
	assert.Equal(t, 50, cfg.Matching.MaxItems)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 5, cfg.Notifications.TopN)

	rank := GetWorkerConfig(cfg, "rank-investors")
	assert.True(t, rank.Enabled)
	assert.Equal(t, 8, rank.MaxJobsActive)
	assert.Equal(t, 30000, rank.Timeout)
	assert.Equal(t, 3, rank.MaxRetries)

	assert.False(t, IsWorkerEnabled(cfg, "notify-investor-matches"))
	assert.True(t, IsWorkerEnabled(cfg, "select-top-matches"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "unknown").MaxJobsActive)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  postgres:\n    host: h\n    database: d\n    user: u\n  redis:\n    address: r\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "missing redis",
			body:    "camunda:\n  broker_address: b\ndatabase:\n  postgres:\n    host: h\n    database: d\n    user: u\n",
			wantErr: "database.redis.address is required",
		},
		{
			name: "elasticsearch source without address",
			body: "camunda:\n  broker_address: b\ndatabase:\n  postgres:\n    host: h\n    database: d\n    user: u\n  redis:\n    address: r\n" +
				"matching:\n  candidate_source: elasticsearch\n",
			wantErr: "database.elasticsearch.addresses or url is required",
		},
		{
			name: "unknown source",
			body: "camunda:\n  broker_address: b\ndatabase:\n  postgres:\n    host: h\n    database: d\n    user: u\n  redis:\n    address: r\n" +
				"matching:\n  candidate_source: mongo\n",
			wantErr: "matching.candidate_source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_ElasticsearchSource(t *testing.T) {
	withES := `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: startupai
    user: founder
  redis:
    address: localhost:6379
  elasticsearch:
    addresses: ["http://localhost:9200"]
matching:
  candidate_source: elasticsearch
`
	cfg, err := LoadFromFile(writeConfig(t, withES))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "startupai", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=startupai sslmode=disable", p.GetDSN())
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
