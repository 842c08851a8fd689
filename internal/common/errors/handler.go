// internal/common/errors/handler.go
package errors

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// CommandTimeout bounds a single job command when no client sender is wired.
const CommandTimeout = 10 * time.Second

// SendFunc delivers one job command. Implementations own the context the
// command runs on, so a handler whose own deadline has already passed can
// still report the outcome to the broker.
type SendFunc func(operation string, send func(context.Context) error) error

// SendOnce sends the command a single time on a fresh CommandTimeout deadline.
func SendOnce(_ string, send func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
	defer cancel()
	return send(ctx)
}

type ErrorHandler struct {
	logger Logger
	send   SendFunc
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return NewErrorHandlerWithSender(logger, SendOnce)
}

func NewErrorHandlerWithSender(logger Logger, send SendFunc) *ErrorHandler {
	if send == nil {
		send = SendOnce
	}
	return &ErrorHandler{logger: logger, send: send}
}

// HandleJobError fails the job with retries for retryable codes while the job still
// has retries left, and throws a BPMN error otherwise.
func (h *ErrorHandler) HandleJobError(client worker.JobClient, job entities.Job, err error) {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	h.logError(job, stdErr, bpmnErr)

	if stdErr.Retryable && IsRetryableErrorCode(stdErr.Code) && job.Retries > 0 {
		h.failJobWithRetries(client, job, bpmnErr, GetRetryCount(stdErr.Code))
		return
	}
	h.throwBPMNError(client, job, bpmnErr)
}

// Normalize unwraps a StandardError from err, or wraps err as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// RemainingRetries never raises the retry budget the broker already granted.
func RemainingRetries(jobRetries int32, maxRetries int) int {
	if jobRetries > 0 && int(jobRetries) < maxRetries {
		return int(jobRetries) - 1
	}
	return maxRetries - 1
}

func (h *ErrorHandler) failJobWithRetries(client worker.JobClient, job entities.Job, bpmnErr *BPMNError, maxRetries int) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(RemainingRetries(job.Retries, maxRetries))).
		ErrorMessage(bpmnErr.Message)

	err := h.send("fail job", func(ctx context.Context) error {
		if withVars, err := cmd.VariablesFromMap(bpmnErr.ToErrorVariables()); err == nil {
			_, err = withVars.Send(ctx)
			return err
		}
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to send fail job command", map[string]interface{}{"error": err.Error()})
	}
}

func (h *ErrorHandler) throwBPMNError(client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	err := h.send("throw error", func(ctx context.Context) error {
		if withVars, err := cmd.VariablesFromMap(bpmnErr.ToErrorVariables()); err == nil {
			_, err = withVars.Send(ctx)
			return err
		}
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{"error": err.Error()})
	}
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    bpmnErr.Code,
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          GetRetryCount(stdErr.Code),
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
