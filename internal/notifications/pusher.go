package notifications

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
	"github.com/anonto42/nano-midea/socialgraph/pkg/metrics"
)

// Message is a push notification with a data payload
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Pusher delivers push messages to devices and manages topic subscriptions
type Pusher interface {
	SendMulticast(ctx context.Context, tokens []string, msg Message) error
	SendTopic(ctx context.Context, topic string, msg Message) error
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) error
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error
}

// FCM request limits
const (
	maxMulticastTokens = 500
	maxTopicTokens     = 1000
)

// FCMPusher sends through Firebase Cloud Messaging
type FCMPusher struct {
	client *messaging.Client
}

var _ Pusher = (*FCMPusher)(nil)

// NewFCMPusher creates a new FCMPusher
func NewFCMPusher(client *messaging.Client) *FCMPusher {
	return &FCMPusher{client: client}
}

func (p *FCMPusher) SendMulticast(ctx context.Context, tokens []string, msg Message) error {
	l := logger.Ctx(ctx)
	for _, batch := range chunk(tokens, maxMulticastTokens) {
		resp, err := p.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: notification(msg),
			Data:         msg.Data,
		})
		metrics.RecordPush("multicast", err)
		if err != nil {
			return fmt.Errorf("fcm multicast: %w", err)
		}
		if resp.FailureCount > 0 {
			for i, r := range resp.Responses {
				if !r.Success {
					l.Warn().Err(r.Error).Str("token", batch[i]).Msg("push to device failed")
				}
			}
		}
	}
	return nil
}

func (p *FCMPusher) SendTopic(ctx context.Context, topic string, msg Message) error {
	_, err := p.client.Send(ctx, &messaging.Message{
		Topic:        topic,
		Notification: notification(msg),
		Data:         msg.Data,
	})
	metrics.RecordPush("topic", err)
	if err != nil {
		return fmt.Errorf("fcm send to topic %s: %w", topic, err)
	}
	return nil
}

func (p *FCMPusher) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	for _, batch := range chunk(tokens, maxTopicTokens) {
		resp, err := p.client.SubscribeToTopic(ctx, batch, topic)
		if err != nil {
			return fmt.Errorf("fcm subscribe to %s: %w", topic, err)
		}
		logTopicErrors(ctx, "subscribe", topic, resp)
	}
	return nil
}

func (p *FCMPusher) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	for _, batch := range chunk(tokens, maxTopicTokens) {
		resp, err := p.client.UnsubscribeFromTopic(ctx, batch, topic)
		if err != nil {
			return fmt.Errorf("fcm unsubscribe from %s: %w", topic, err)
		}
		logTopicErrors(ctx, "unsubscribe", topic, resp)
	}
	return nil
}

func notification(msg Message) *messaging.Notification {
	if msg.Title == "" && msg.Body == "" {
		return nil
	}
	return &messaging.Notification{Title: msg.Title, Body: msg.Body}
}

func logTopicErrors(ctx context.Context, op, topic string, resp *messaging.TopicManagementResponse) {
	if resp == nil || resp.FailureCount == 0 {
		return
	}
	l := logger.Ctx(ctx)
	for _, e := range resp.Errors {
		l.Warn().Str("op", op).Str("topic", topic).Int("index", e.Index).Str("reason", e.Reason).Msg("topic management failed for token")
	}
}

func chunk(tokens []string, size int) [][]string {
	var out [][]string
	for len(tokens) > size {
		out = append(out, tokens[:size])
		tokens = tokens[size:]
	}
	if len(tokens) > 0 {
		out = append(out, tokens)
	}
	return out
}

// LogPusher only logs what would be sent
type LogPusher struct{}

var _ Pusher = LogPusher{}

func (LogPusher) SendMulticast(ctx context.Context, tokens []string, msg Message) error {
	l := logger.Ctx(ctx)
	l.Info().Int("tokens", len(tokens)).Str("title", msg.Title).Str("body", msg.Body).Interface("data", msg.Data).Msg("push multicast")
	return nil
}

func (LogPusher) SendTopic(ctx context.Context, topic string, msg Message) error {
	l := logger.Ctx(ctx)
	l.Info().Str("topic", topic).Str("title", msg.Title).Interface("data", msg.Data).Msg("push topic")
	return nil
}

func (LogPusher) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	l := logger.Ctx(ctx)
	l.Info().Int("tokens", len(tokens)).Str("topic", topic).Msg("subscribe to topic")
	return nil
}

func (LogPusher) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	l := logger.Ctx(ctx)
	l.Info().Int("tokens", len(tokens)).Str("topic", topic).Msg("unsubscribe from topic")
	return nil
}
