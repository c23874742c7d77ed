package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants keep the queue producer and consumer in sync.
const (
	TypeNewsletterWelcome = "newsletter:welcome"
)

// NewsletterWelcomePayload identifies the subscriber to greet.
type NewsletterWelcomePayload struct {
	SubscriberID  uint   `json:"subscriber_id"`
	Email         string `json:"email"`
	CorrelationID string `json:"correlation_id"`
}

// NewNewsletterWelcomeTask builds the welcome-email task for a new subscriber.
func NewNewsletterWelcomeTask(subscriberID uint, email, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(NewsletterWelcomePayload{
		SubscriberID:  subscriberID,
		Email:         email,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNewsletterWelcome, payload), nil
}
