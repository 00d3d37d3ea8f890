// Package events fans route update events out to downstream consumers over SQS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"searoute/internal/session"
	"searoute/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// RouteUpdateMessage is the JSON body of every published event.
type RouteUpdateMessage struct {
	EventID   string         `json:"event_id"`
	SessionID string         `json:"session_id"`
	Message   string         `json:"message"`
	Severity  types.Severity `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id,omitempty"`
}

// SQSPublisher implements session.EventPublisher.
type SQSPublisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

var _ session.EventPublisher = (*SQSPublisher)(nil)

// NewSQSPublisher creates a publisher that sends to queueURL.
func NewSQSPublisher(client SQSSender, queueURL string, logger *slog.Logger) *SQSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// PublishUpdate serializes ev and sends it with session_id and severity as
// message attributes so consumers can filter without decoding the body.
func (p *SQSPublisher) PublishUpdate(ctx context.Context, sessionID string, ev types.UpdateEvent) error {
	msg := RouteUpdateMessage{
		EventID:   ev.ID,
		SessionID: sessionID,
		Message:   ev.Message,
		Severity:  ev.Severity,
		Timestamp: ev.Timestamp.UTC(),
		RequestID: types.GetRequestID(ctx),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("events: failed to marshal RouteUpdateMessage: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"session_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(sessionID),
			},
			"severity": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(ev.Severity)),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("events: failed to send route update to %s: %w", p.queueURL, err)
	}

	p.logger.InfoContext(ctx, "route update event sent",
		"queue_url", p.queueURL,
		"session_id", sessionID,
		"event_id", ev.ID,
		"severity", string(ev.Severity),
	)
	return nil
}
