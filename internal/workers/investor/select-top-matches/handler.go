// internal/workers/investor/select-top-matches/handler.go
package selecttopmatches

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"investor-match-workers/internal/common/errors"
	"investor-match-workers/internal/common/logger"
	"investor-match-workers/internal/common/metrics"
	"investor-match-workers/internal/common/validation"
	"investor-match-workers/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "select-top-matches"
)

var schema = validation.MustCompile(TaskType, inputSchema)

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	send         errors.SendFunc
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		send:         errors.SendOnce,
	}
}

// WithCommandSender routes complete, fail and throw commands through send.
func (h *Handler) WithCommandSender(send errors.SendFunc) *Handler {
	h.send = send
	h.errorHandler = errors.NewErrorHandlerWithSender(h.logger, send)
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.fail(client, job, err)
		return err
	}

	output := h.execute(input)

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	err = h.send("complete job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return nil
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &doc); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse variables: %v", err))
	}
	if result := schema.Validate(doc); !result.Valid {
		return nil, errors.NewInputValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("decode input: %v", err))
	}
	return &input, nil
}

// execute keeps the ranked order it is given. Matches below MinScore are
// dropped before paging, so Total counts only what could be shown.
func (h *Handler) execute(input *Input) *Output {
	limit := input.Limit
	if limit <= 0 || limit > h.config.MaxItems {
		limit = h.config.MaxItems
	}

	kept := make([]matching.ScoredCandidate, 0, len(input.Matches))
	for _, m := range input.Matches {
		if m.MatchScore >= input.MinScore {
			kept = append(kept, m)
		}
	}

	start := input.Offset
	if start < 0 {
		start = 0
	}
	if start > len(kept) {
		start = len(kept)
	}
	end := start + limit
	if end > len(kept) {
		end = len(kept)
	}

	h.logger.Debug("matches selected", map[string]interface{}{
		"received": len(input.Matches),
		"kept":     len(kept),
		"returned": end - start,
	})

	return &Output{
		Matches: kept[start:end],
		Total:   len(kept),
		HasMore: end < len(kept),
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(client, job, err)
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInputValidationFailedError("input cannot be nil")
	}
	return h.execute(input), nil
}
