package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fitlgui/Api-OurThree/internal/logging"
)

const auditQueueName = "horta.audit"

// AuditConsumer binds a durable queue to every routing key of the events
// exchange and appends one human-friendly line per event to
// <Dir>/horta.log.
type AuditConsumer struct {
	URL      string
	Exchange string
	Dir      string
	Log      logging.Logger
}

// Run connects to the broker and consumes until ctx is cancelled.  Broker
// failures trigger a reconnect with exponential backoff capped at 30s; the
// only error returned is ctx.Err().
func (a *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(a.URL)
		if err != nil {
			a.Log.Warn(ctx, "audit-consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = a.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.Log.Warn(ctx, "audit-consumer: consume loop ended; reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		a.Log.Warn(ctx, "audit-consumer: set QoS failed", "err", err)
	}
	if err := declareExchange(ch, a.Exchange); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(auditQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(auditQueueName, "#", a.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, auditQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := a.handle(d.RoutingKey, d.Body); err != nil {
			a.Log.Error(ctx, "audit-consumer: handle message failed", "routing_key", d.RoutingKey, "err", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handle renders one event and appends it to the audit log.
func (a *AuditConsumer) handle(routingKey string, body []byte) error {
	line, err := FormatAuditLine(routingKey, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", a.Dir, err)
	}
	f, err := os.OpenFile(filepath.Join(a.Dir, "horta.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine turns an event body into a single newline-terminated line.
func FormatAuditLine(routingKey string, body []byte) (string, error) {
	switch routingKey {
	case KeyUserRegistered:
		var ev UserRegisteredEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", routingKey, err)
		}
		return fmt.Sprintf("[%s] User registered | username=%q | email=%q\n",
			ev.RegisteredAt.UTC().Format(time.RFC3339), ev.Username, ev.Email), nil
	case KeyPumpToggled:
		var ev PumpToggledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", routingKey, err)
		}
		state := "off"
		if ev.IsPumpOn {
			state = "on"
		}
		return fmt.Sprintf("[%s] Pump turned %s\n", ev.ToggledAt.UTC().Format(time.RFC3339), state), nil
	}
	return "", fmt.Errorf("unknown routing key %q", routingKey)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
