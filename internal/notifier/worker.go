package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vivapicks/picks-platform/internal/notifier/mailer"
	skafka "github.com/vivapicks/picks-platform/internal/shared/kafka"
	"github.com/vivapicks/picks-platform/pkg/contracts/events"
)

var (
	emailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_emails_sent_total",
		Help: "E-mails enviados por tipo",
	}, []string{"kind"})
	emailsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_emails_failed_total",
		Help: "Falhas de envio SMTP",
	})
	dlqTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_dlq_total",
		Help: "Mensagens enviadas à DLQ",
	})
)

// SubscriberSource lista os destinatários do broadcast (assinantes ativos).
type SubscriberSource interface {
	ListSubscriberEmails(ctx context.Context) ([]string, error)
}

// Worker consome os tópicos de notificação e envia os e-mails.
// Mensagem com payload inválido ou broadcast que falhou inteiro vai pra DLQ.
type Worker struct {
	Log    *zap.Logger
	Mailer mailer.Sender
	Subs   SubscriberSource
	DLQ    *skafka.Writer
}

func (w *Worker) toDLQ(ctx context.Context, topic string, value []byte) {
	if w.DLQ == nil {
		return
	}
	dlqTotal.Inc()
	if err := skafka.WriteJSON(ctx, w.DLQ, topic, value); err != nil {
		w.Log.Error("dlq write", zap.Error(err))
	}
}

// broadcast envia o mesmo corpo a todos os assinantes ativos. Falha parcial
// só loga; erro retornado apenas quando nenhum envio deu certo.
func (w *Worker) broadcast(ctx context.Context, kind, subject, html string) error {
	emails, err := w.Subs.ListSubscriberEmails(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	if len(emails) == 0 {
		return nil
	}

	w.Log.Info("broadcasting", zap.String("kind", kind), zap.Int("recipients", len(emails)))
	failed := 0
	for _, to := range emails {
		if err := w.Mailer.Send(to, subject, html); err != nil {
			w.Log.Warn("send mail", zap.String("to", to), zap.Error(err))
			emailsFailedTotal.Inc()
			failed++
			continue
		}
		emailsSentTotal.WithLabelValues(kind).Inc()
	}
	if failed == len(emails) {
		return fmt.Errorf("broadcast %s: all %d sends failed", kind, failed)
	}
	return nil
}

func (w *Worker) HandlePickPublished(ctx context.Context, value []byte) error {
	var e events.PickPublished
	if err := json.Unmarshal(value, &e); err != nil {
		return fmt.Errorf("unmarshal pick_published: %w", err)
	}
	if !e.Notify {
		return nil
	}
	html, err := renderPickPublished(e)
	if err != nil {
		return err
	}
	return w.broadcast(ctx, "pick_published", "[VIVA PICKS] NEW INTEL: "+e.Matchup, html)
}

func (w *Worker) HandlePickUpdated(ctx context.Context, value []byte) error {
	var e events.PickPublished
	if err := json.Unmarshal(value, &e); err != nil {
		return fmt.Errorf("unmarshal pick_updated: %w", err)
	}
	if !e.Notify {
		return nil
	}
	html, err := renderPickUpdated(e)
	if err != nil {
		return err
	}
	return w.broadcast(ctx, "pick_updated", "[VIVA PICKS] UPDATE: "+e.Matchup, html)
}

func (w *Worker) HandleUserRegistered(_ context.Context, value []byte) error {
	var e events.UserRegistered
	if err := json.Unmarshal(value, &e); err != nil {
		return fmt.Errorf("unmarshal user_registered: %w", err)
	}
	html, err := renderWelcome()
	if err != nil {
		return err
	}
	if err := w.Mailer.Send(e.Email, "Welcome to VivaPicks", html); err != nil {
		emailsFailedTotal.Inc()
		return err
	}
	emailsSentTotal.WithLabelValues("welcome").Inc()
	return nil
}

// HandleBetSettled avisa o apostador quando o user_id da aposta é um e-mail.
// Carteiras demo (user_id "demo" etc) não geram correspondência.
func (w *Worker) HandleBetSettled(_ context.Context, value []byte) error {
	var e events.BetSettled
	if err := json.Unmarshal(value, &e); err != nil {
		return fmt.Errorf("unmarshal bet_settled: %w", err)
	}
	if !strings.Contains(e.UserID, "@") {
		return nil
	}
	html, err := renderBetSettled(e)
	if err != nil {
		return err
	}
	subject := "[VIVA PICKS] Bet settled: " + strings.ToUpper(e.Result)
	if err := w.Mailer.Send(e.UserID, subject, html); err != nil {
		emailsFailedTotal.Inc()
		return err
	}
	emailsSentTotal.WithLabelValues("bet_settled").Inc()
	return nil
}

// Run consome um reader até o contexto encerrar, despachando cada mensagem
// ao handler. Erro de handler manda o payload pra DLQ e segue adiante.
func (w *Worker) Run(ctx context.Context, reader *kafkago.Reader, topic string, handle func(context.Context, []byte) error) {
	for {
		_, value, err := skafka.ReadNext(ctx, reader)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.Log.Warn("kafka read", zap.String("topic", topic), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if err := handle(ctx, value); err != nil {
			w.Log.Error("handle", zap.String("topic", topic), zap.Error(err))
			w.toDLQ(ctx, topic, value)
		}
	}
}
