// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestActivity(id string) Activity {
	return Activity{
		ID:          id,
		DisplayName: "Rank Investors",
		Category:    "investor",
		TaskType:    id,
		Timeout:     "30s",
		Retries:     3,
	}
}

func TestAddFindSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity-registry.json")

	reg, err := LoadOrNew(path)
	require.NoError(t, err)
	require.NoError(t, reg.Add(createTestActivity("rank-investors")))
	assert.Error(t, reg.Add(createTestActivity("rank-investors")))
	require.NoError(t, Save(reg, path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.NotEmpty(t, loaded.LastUpdated)

	a, ok := loaded.Find("rank-investors")
	require.True(t, ok)
	assert.Equal(t, 3, a.Retries)
	assert.NotNil(t, a.InputSchema)

	d, err := a.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	_, ok = loaded.Find("unknown")
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	reg := &ActivityRegistry{}
	require.NoError(t, reg.Add(createTestActivity("select-top-matches")))

	require.NoError(t, reg.Update("select-top-matches", "status", StatusCompleted))
	require.NoError(t, reg.Update("select-top-matches", "retries", "5"))
	require.NoError(t, reg.Update("select-top-matches", "timeout", "45s"))

	a, _ := reg.Find("select-top-matches")
	assert.Equal(t, StatusCompleted, a.ImplementationStatus)
	assert.Equal(t, 5, a.Retries)
	assert.Equal(t, "45s", a.Timeout)

	assert.Error(t, reg.Update("select-top-matches", "retries", "many"))
	assert.Error(t, reg.Update("select-top-matches", "timeout", "soon"))
	assert.Error(t, reg.Update("select-top-matches", "colour", "blue"))
	assert.Error(t, reg.Update("missing", "status", StatusPlanned))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ActivityRegistry)
		wantErr string
	}{
		{name: "valid"},
		{name: "empty", mutate: func(r *ActivityRegistry) { r.Activities = nil }, wantErr: "no activities"},
		{name: "duplicate id", mutate: func(r *ActivityRegistry) {
			r.Activities = append(r.Activities, r.Activities[0])
		}, wantErr: "duplicate activity ID"},
		{name: "duplicate task type", mutate: func(r *ActivityRegistry) {
			dup := r.Activities[0]
			dup.ID = "other"
			r.Activities = append(r.Activities, dup)
		}, wantErr: "duplicate task type"},
		{name: "missing category", mutate: func(r *ActivityRegistry) { r.Activities[0].Category = "" }, wantErr: "Category"},
		{name: "bad timeout", mutate: func(r *ActivityRegistry) { r.Activities[0].Timeout = "1 minute" }, wantErr: "invalid timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &ActivityRegistry{Activities: []Activity{createTestActivity("rank-investors")}}
			if tt.mutate != nil {
				tt.mutate(reg)
			}
			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestShippedRegistryIsValid(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{"rank-investors", "select-top-matches", "notify-investor-matches"} {
		_, ok := reg.Find(taskType)
		assert.True(t, ok, taskType)
	}
}
