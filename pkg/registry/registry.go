// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// LoadOrNew returns an empty registry when path does not exist yet.
func LoadOrNew(path string) (*ActivityRegistry, error) {
	reg, err := LoadRegistry(path)
	if os.IsNotExist(err) {
		return &ActivityRegistry{Version: "1.0.0", Activities: []Activity{}}, nil
	}
	return reg, err
}

func Save(reg *ActivityRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Find looks an activity up by task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

func (r *ActivityRegistry) Add(a Activity) error {
	for _, existing := range r.Activities {
		if existing.ID == a.ID {
			return fmt.Errorf("activity with ID %s already exists", a.ID)
		}
	}
	if a.InputSchema == nil {
		a.InputSchema = map[string]interface{}{}
	}
	if a.OutputSchema == nil {
		a.OutputSchema = map[string]interface{}{}
	}
	r.Activities = append(r.Activities, a)
	return nil
}

// Update sets one named field of the activity with the given ID.
func (r *ActivityRegistry) Update(id, field, value string) error {
	for i := range r.Activities {
		if r.Activities[i].ID != id {
			continue
		}
		a := &r.Activities[i]
		switch field {
		case "status":
			a.ImplementationStatus = value
		case "version":
			a.Version = value
		case "displayName":
			a.DisplayName = value
		case "description":
			a.Description = value
		case "category":
			a.Category = value
		case "taskType":
			a.TaskType = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			a.Timeout = value
		case "retries":
			retries, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid retries value: %w", err)
			}
			a.Retries = retries
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		return nil
	}
	return fmt.Errorf("activity with ID %s not found", id)
}

func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		}
		ids[a.ID] = true

		if a.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		}
		if a.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", a.ID)
		}
		if taskTypes[a.TaskType] {
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		}
		taskTypes[a.TaskType] = true

		if a.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
		if _, err := a.TimeoutDuration(); err != nil {
			return fmt.Errorf("activity %s: %w", a.ID, err)
		}
	}
	return nil
}

// TimeoutDuration parses Timeout; an empty value means zero.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", a.Timeout, err)
	}
	return d, nil
}
