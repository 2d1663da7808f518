package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// DefaultQueue is the durable queue carrying notification events.
const DefaultQueue = "booking.notifications"

// AMQPPublisher publishes events as persistent JSON messages on a
// durable queue through the default exchange.  It dials per publish;
// notification volume is a few messages per booking, and a fresh
// connection keeps the request path free of reconnect state.
type AMQPPublisher struct {
	url   string
	queue string
	log   zerolog.Logger
}

func NewAMQPPublisher(url, queue string, log zerolog.Logger) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{url: url, queue: queue, log: log}
}

// Dispatch implements Dispatcher.
func (p *AMQPPublisher) Dispatch(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareQueue(ch, p.queue); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         string(ev.Kind),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	p.log.Debug().Str("event_id", ev.ID).Str("kind", string(ev.Kind)).Msg("notification published")
	return nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	// durable, not auto-deleted, not exclusive
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", name, err)
	}
	return nil
}

// LogDispatcher writes events to the log instead of a broker.  It backs
// NOTIFY_DRIVER=log in development.
type LogDispatcher struct {
	Log zerolog.Logger
}

// Dispatch implements Dispatcher.
func (d LogDispatcher) Dispatch(_ context.Context, ev Event) error {
	evt := d.Log.Info().
		Str("kind", string(ev.Kind)).
		Str("event_id", ev.ID)
	if ev.BookingID != 0 {
		evt = evt.Uint64("booking_id", ev.BookingID).
			Str("equipment", ev.EquipmentTitle).
			Str("from", ev.DateFrom).
			Str("to", ev.DateTo).
			Int64("amount_cents", ev.AmountCents)
	}
	rcpt := make([]string, 0, 2)
	for _, r := range Recipients(ev) {
		rcpt = append(rcpt, r.Contact.Email)
	}
	evt.Strs("recipients", rcpt).Msg("notification")
	return nil
}
