// Package events delivers ledger notifications to interested consumers
// over Redis pub/sub. Delivery is fire-and-forget by contract: the
// ledger logs a failed publish and moves on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/payment"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/ledger"
)

// PaymentEvent is the wire form of a recorded payment
type PaymentEvent struct {
	PaymentID uuid.UUID  `json:"payment_id"`
	Date      time.Time  `json:"date"`
	Purpose   string     `json:"purpose"`
	Detail    string     `json:"detail,omitempty"`
	Total     string     `json:"total"`
	SubjectID *uuid.UUID `json:"subject_id,omitempty"`
	CreatedBy uuid.UUID  `json:"created_by"`
}

// RedisNotifier publishes recorded payments on a Redis channel
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier creates a notifier publishing on the given channel
func NewRedisNotifier(client *redis.Client, channel string) ledger.Notifier {
	return &RedisNotifier{client: client, channel: channel}
}

// PaymentRecorded implements ledger.Notifier
func (n *RedisNotifier) PaymentRecorded(ctx context.Context, p *payment.Payment) error {
	event := PaymentEvent{
		PaymentID: p.ID,
		Date:      p.Date,
		Purpose:   string(p.Purpose.Kind),
		Detail:    p.Purpose.Detail,
		Total:     p.TotalAmount().String(),
		SubjectID: p.SubjectID,
		CreatedBy: p.CreatedBy,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling payment event: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing payment event: %w", err)
	}
	return nil
}
