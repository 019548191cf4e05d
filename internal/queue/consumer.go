package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/stagedesk/stagedesk/internal/translate"
)

// StartTranslationWorker connects to the broker, declares the
// translation.warm queue and consumes warm jobs, feeding each batch through
// the translation service. It runs a reconnect loop with exponential
// backoff and keeps running until the process exits; poison messages are
// rejected without requeue so a bad payload cannot wedge the queue.
//
// Run it on its own goroutine from main.
func StartTranslationWorker(svc *translate.Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(BrokerURL())
		if err != nil {
			log.Printf("translation-worker: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeWarmLoop(conn, svc, logger); err != nil {
			log.Printf("translation-worker: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeWarmLoop(conn *amqp.Connection, svc *translate.Service, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("translation-worker: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(TranslationWarmQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(TranslationWarmQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleWarmJob(d.Body, svc, logger); err != nil {
			logger.Warn("warm job failed", "err", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleWarmJob(body []byte, svc *translate.Service, logger *slog.Logger) error {
	var ev TranslationWarmEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if len(ev.Texts) == 0 || ev.TargetLang == "" {
		return errors.New("empty warm job")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// TranslateBatch degrades internally; a tripped breaker means the job
	// completes as a no-op rather than erroring and being rejected.
	svc.TranslateBatch(ctx, ev.Texts, ev.TargetLang)
	logger.Info("warm job processed",
		"texts", len(ev.Texts), "lang", ev.TargetLang, "requested_at", ev.RequestedAt)
	return nil
}
