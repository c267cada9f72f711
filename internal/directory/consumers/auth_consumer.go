package consumers

import (
	"context"

	"github.com/hostelhq/hostelhq-backend/internal/directory/service"
	"github.com/hostelhq/hostelhq-backend/pkg/actor"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
	"github.com/hostelhq/hostelhq-backend/pkg/messaging"
)

// AuthEventConsumer bridges identity-provider signup events into profile and
// student rows.
type AuthEventConsumer struct {
	consumer  *messaging.Consumer
	directory *service.DirectoryService
	logger    *logger.Logger
}

// NewAuthEventConsumer creates a new auth event consumer
func NewAuthEventConsumer(
	rmq *messaging.RabbitMQ,
	directory *service.DirectoryService,
	log *logger.Logger,
) (*AuthEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "hostel-service.auth-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeAuthEvents, "user.#"); err != nil {
		return nil, err
	}

	c := &AuthEventConsumer{
		consumer:  consumer,
		directory: directory,
		logger:    log,
	}

	consumer.RegisterHandler(messaging.EventUserCreated, c.handleUserCreated)
	consumer.RegisterHandler(messaging.EventUserDeleted, c.handleUserDeleted)

	return c, nil
}

// Start starts consuming messages
func (c *AuthEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *AuthEventConsumer) handleUserCreated(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserCreatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("user_id", data.UserID).
		Str("email", data.Email).
		Str("role", data.Metadata.Role).
		Msg("received user created event")

	// Consumers run with system privileges
	ctx = actor.WithActor(ctx, actor.SystemActor())

	return c.directory.RegisterUser(ctx, &data)
}

func (c *AuthEventConsumer) handleUserDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("user_id", data.UserID).
		Msg("received user deleted event")

	ctx = actor.WithActor(ctx, actor.SystemActor())

	return c.directory.RemoveUser(ctx, data.UserID)
}
