// internal/workers/investor/rank-investors/handler.go
package rankinvestors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"investor-match-workers/internal/common/errors"
	"investor-match-workers/internal/common/logger"
	"investor-match-workers/internal/common/metrics"
	"investor-match-workers/internal/common/validation"
	"investor-match-workers/internal/matching"
	"investor-match-workers/internal/ranking"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "rank-investors"
)

var schema = validation.MustCompile(TaskType, inputSchema)

type Handler struct {
	config       *Config
	service      *ranking.Service
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	send         errors.SendFunc
}

func NewHandler(config *Config, service *ranking.Service, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.fail(client, job, err)
		return err
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(client, job, err)
		return err
	}

	return h.completeJob(client, job, output)
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.service.Rank(ctx, ranking.Request{
		StartupID:  input.StartupID,
		Seeker:     input.Seeker,
		Candidates: input.Candidates,
	}, "job")
	if err != nil {
		return nil, err
	}

	matches := res.Matches
	if matches == nil {
		matches = []matching.ScoredCandidate{}
	}

	h.logger.Info("investors ranked", map[string]interface{}{
		"startupId":       input.StartupID,
		"totalCandidates": res.TotalCandidates,
		"eligibleCount":   res.EligibleCount,
	})

	return &Output{
		StartupID:       res.StartupID,
		Matches:         matches,
		TotalCandidates: res.TotalCandidates,
		EligibleCount:   res.EligibleCount,
		RankedAt:        res.RankedAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		h.fail(client, job, errors.NewBusinessRuleError("Output not serialisable", err.Error()))
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

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
