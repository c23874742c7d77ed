package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"healthhive/internal/api/middleware"
	"healthhive/internal/database"
	"healthhive/internal/tasks"
)

// TaskEnqueuer is the slice of asynq.Client the API needs; tests swap in a
// recording fake.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewsletterHandler manages the subscription list and queues welcome mail.
type NewsletterHandler struct {
	db       *gorm.DB
	enqueuer TaskEnqueuer
	logger   *slog.Logger
}

// NewNewsletterHandler constructs the handler.
func NewNewsletterHandler(db *gorm.DB, enqueuer TaskEnqueuer, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{db: db, enqueuer: enqueuer, logger: logger}
}

type subscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Subscribe adds an address to the list and queues the welcome email.
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	ctx := c.Request.Context()

	var existing database.Subscriber
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		Conflict(c, "already subscribed")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		Internal(c, "failed to check subscription")
		return
	}

	subscriber := database.Subscriber{Email: email}
	if err := h.db.WithContext(ctx).Create(&subscriber).Error; err != nil {
		Internal(c, "failed to subscribe")
		return
	}

	if h.enqueuer != nil {
		task, err := tasks.NewNewsletterWelcomeTask(subscriber.ID, email, middleware.GetCorrelationID(c))
		if err == nil {
			_, err = h.enqueuer.Enqueue(task, asynq.MaxRetry(3))
		}
		if err != nil && h.logger != nil {
			// The subscription is stored; the greeting is best effort.
			h.logger.Error("enqueue welcome mail", slog.Any("error", err))
		}
	}

	Message(c, http.StatusCreated, "subscribed")
}

// Unsubscribe removes an address from the list.
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		BadRequest(c, "missing email")
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Where("email = ?", email).
		Delete(&database.Subscriber{})
	if result.Error != nil {
		Internal(c, "failed to unsubscribe")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "email not subscribed")
		return
	}

	Message(c, http.StatusOK, "unsubscribed")
}
