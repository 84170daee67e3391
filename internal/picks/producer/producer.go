package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vivapicks/picks-platform/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do picks-service. Um writer por tópico
// (pick_published, pick_updated, user_registered).
type KafkaPublisher struct {
	Published  *kafka.Writer
	Updated    *kafka.Writer
	Registered *kafka.Writer
}

func NewKafkaPublisher(published, updated, registered *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Published: published, Updated: updated, Registered: registered}
}

func write(ctx context.Context, w *kafka.Writer, key string, v any) error {
	b, _ := json.Marshal(v)
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b})
}

func (p *KafkaPublisher) PublishPickPublished(ctx context.Context, e events.PickPublished) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Published, e.Sport, e)
}

func (p *KafkaPublisher) PublishPickUpdated(ctx context.Context, e events.PickPublished) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Updated, e.Sport, e)
}

func (p *KafkaPublisher) PublishUserRegistered(ctx context.Context, e events.UserRegistered) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Registered, e.Email, e)
}
