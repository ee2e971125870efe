package service

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/order_backend/internal/events"
	"github.com/Skotchmaster/order_backend/pkg/logging"
	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrForbidden          = errors.New("forbidden")           // 403
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
)

var validate = validator.New(validator.WithRequiredStructEnabled())

const publishTimeout = 5 * time.Second

// publish sends an event after the write it describes has committed.
// Delivery failures are logged and never returned to the caller.
func publish(ctx context.Context, pub events.Publisher, topic, key string, event map[string]any) {
	if pub == nil {
		return
	}
	l := logging.FromContext(ctx)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := pub.PublishEvent(ctx, topic, key, event); err != nil {
		l.Error("publish_event_failed", "topic", topic, "type", event["type"], "error", err)
	}
}
