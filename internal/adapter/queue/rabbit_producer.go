package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/CroosRRAF/ChefSync-sub012/internal/usecase"
)

const notificationQueue = "order.notifications.q"

// RabbitNotifier publishes order lifecycle notifications to a topic exchange.
// The notification/toast service (out of process) consumes them; routing keys
// are the notification kinds ("order.placed", "order.delivered", ...).
type RabbitNotifier struct {
	ch       *amqp.Channel
	exchange string
}

// NewRabbitNotifier sets up the exchange, queue, and binding once at startup.
func NewRabbitNotifier(ch *amqp.Channel, exchange string) (*RabbitNotifier, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		notificationQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	// one queue catches every order.* notification kind
	if err := ch.QueueBind(q.Name, "order.*", exchange, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitNotifier{ch: ch, exchange: exchange}, nil
}

func (p *RabbitNotifier) Publish(ctx context.Context, n usecase.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Body:         body,
	}

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		n.Kind, // routing key
		false,  // mandatory
		false,  // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

var _ usecase.Notifier = (*RabbitNotifier)(nil)
