package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"healthhive/internal/database"
	"healthhive/internal/errcode"
	"healthhive/internal/tasks"
)

// NewsletterTaskHandler sends welcome mail for fresh subscriptions.
type NewsletterTaskHandler struct {
	db             *gorm.DB
	mailer         Mailer
	logger         *slog.Logger
	welcomeSubject string
}

// NewNewsletterTaskHandler constructs the handler.
func NewNewsletterTaskHandler(db *gorm.DB, mailer Mailer, logger *slog.Logger, welcomeSubject string) *NewsletterTaskHandler {
	return &NewsletterTaskHandler{
		db:             db,
		mailer:         mailer,
		logger:         logger,
		welcomeSubject: welcomeSubject,
	}
}

// ProcessTask handles one queued welcome email. A subscriber that vanished
// before the task ran is a ResourceMissing outcome: the task is dropped, not
// retried. Delivery failures are SystemError and go back to the queue.
func (h *NewsletterTaskHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload tasks.NewsletterWelcomePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("subscriber_id", uint64(payload.SubscriberID)),
	)

	var subscriber database.Subscriber
	if err := h.db.WithContext(ctx).First(&subscriber, payload.SubscriberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("subscriber gone before welcome mail, dropping task",
				slog.Int("error_code", errcode.ResourceMissing),
			)
			return nil
		}
		logger.Error("load subscriber failed",
			slog.Int("error_code", errcode.SystemError),
			slog.Any("error", err),
		)
		return fmt.Errorf("load subscriber %d: %w", payload.SubscriberID, err)
	}

	body := "You're on the HealthHive newsletter list.\n\n" +
		"Expect workout programs, nutrition plans and community highlights.\n" +
		"Unsubscribe any time from your account settings."

	if err := h.mailer.Send(subscriber.Email, h.welcomeSubject, body); err != nil {
		logger.Error("send welcome mail failed",
			slog.Int("error_code", errcode.SystemError),
			slog.Any("error", err),
		)
		return fmt.Errorf("send welcome mail: %w", err)
	}

	logger.Info("welcome mail sent")
	return nil
}
