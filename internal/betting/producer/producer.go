package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/vivapicks/picks-platform/internal/betting/ws"
	"github.com/vivapicks/picks-platform/pkg/contracts/events"
)

// KafkaPublisher publica eventos de liquidação no tópico bet_settled.
type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	b, _ := json.Marshal(e)
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.UserID), Value: b})
}

// RedisLinePublisher propaga refreshes de linhas via Pub/Sub pra que todas
// as réplicas do serviço façam broadcast aos seus clientes WebSocket.
// Channel deve bater com o canal que os subscribers escutam.
type RedisLinePublisher struct {
	R       *redis.Client
	Channel string
}

func NewRedisLinePublisher(r *redis.Client, channel string) *RedisLinePublisher {
	if channel == "" {
		channel = ws.PubSubChannel
	}
	return &RedisLinePublisher{R: r, Channel: channel}
}

func (p *RedisLinePublisher) PublishLineUpdate(ctx context.Context, u ws.LineUpdate) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return p.R.Publish(ctx, p.Channel, b).Err()
}
