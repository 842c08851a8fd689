// internal/workers/communication/notify-investor-matches/handler.go
package notifyinvestormatches

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	awsclients "investor-match-workers/internal/common/aws"
	"investor-match-workers/internal/common/errors"
	"investor-match-workers/internal/common/logger"
	"investor-match-workers/internal/common/metrics"
	"investor-match-workers/internal/common/validation"
	"investor-match-workers/internal/matching"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-investor-matches"
)

var schema = validation.MustCompile(TaskType, inputSchema)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	send         errors.SendFunc
	sesClient    SESService
	snsClient    SNSService
	now          func() time.Time
}

func NewHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		send:         errors.SendOnce,
		sesClient:    sesClient,
		snsClient:    snsClient,
		now:          time.Now,
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

// execute sends email before SMS. An email failure fails the job so it can be
// retried; an SMS failure after a sent email is only logged, so a retry never
// mails the founder twice.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	top := topMatches(input.Matches, input.TopN, h.config.TopN)

	out := &Output{
		NotificationID: uuid.New().String(),
		MatchCount:     len(top),
		Status:         StatusSkipped,
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	if len(top) == 0 {
		h.logger.Info("no matches to notify", map[string]interface{}{"startupName": input.StartupName})
		return out, nil
	}

	data := map[string]interface{}{
		"startupName": input.StartupName,
		"count":       len(top),
		"list":        formatList(top),
		"best":        formatMatch(top[0]),
	}

	if h.config.EmailEnabled && input.Email != "" {
		if !validation.ValidateEmail(input.Email) {
			h.logger.Warn("skipping invalid email", map[string]interface{}{"email": input.Email})
		} else {
			subject := renderTemplate(templates["subject"], data)
			body := renderTemplate(templates["body"], data)
			if err := h.sendEmail(ctx, input.Email, subject, body); err != nil {
				return nil, errors.NewNotificationSendFailedError("email", err)
			}
			out.EmailSent = true
		}
	}

	if h.config.SMSEnabled && input.Phone != "" {
		if !validation.ValidatePhone(input.Phone) {
			h.logger.Warn("skipping invalid phone", map[string]interface{}{"phone": input.Phone})
		} else if err := h.sendSMS(ctx, input.Phone, renderTemplate(templates["sms"], data)); err != nil {
			if !out.EmailSent {
				return nil, errors.NewNotificationSendFailedError("sms", err)
			}
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": input.Phone,
			})
		} else {
			out.SMSSent = true
		}
	}

	if out.EmailSent || out.SMSSent {
		out.Status = StatusSent
	}
	return out, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(message),
		MessageAttributes: awsclients.SMSAttributes(h.config.SenderID),
	})
	return err
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(client, job, err)
}

// topMatches keeps the first n matches; input order is already ranked.
func topMatches(matches []matching.ScoredCandidate, requested, fallback int) []matching.ScoredCandidate {
	n := requested
	if n <= 0 {
		n = fallback
	}
	if n > len(matches) {
		n = len(matches)
	}
	return matches[:n]
}

func formatMatch(m matching.ScoredCandidate) string {
	name := m.Candidate.Name
	if name == "" {
		name = m.Candidate.ID
	}
	return fmt.Sprintf("%s (%d)", name, m.MatchScore)
}

func formatList(matches []matching.ScoredCandidate) string {
	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = fmt.Sprintf("%d. %s", i+1, formatMatch(m))
	}
	return strings.Join(lines, "\n")
}

// renderTemplate fills {{key}} placeholders in one left-to-right pass.
// Substituted values are never rescanned, so braces in a startup or investor
// name come out literally. Placeholders without data are dropped.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			break
		}
		b.WriteString(rest[:start])
		if v, ok := data[rest[start+2:start+end]]; ok {
			b.WriteString(fmt.Sprintf("%v", v))
		}
		rest = rest[start+end+2:]
	}
	b.WriteString(rest)
	return b.String()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
