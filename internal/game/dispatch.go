package game

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"InvestArena/internal/metrics"
	"InvestArena/internal/model"
)

// Sender delivers one outbound chat message.
type Sender interface {
	Send(ctx context.Context, msg model.Message) error
}

// Dispatcher fans messages out to teams with bounded concurrency under a
// global rate limit. A failed send never cancels the others.
type Dispatcher struct {
	sender      Sender
	limiter     *rate.Limiter
	concurrency int
}

// NewDispatcher builds a dispatcher. perSecond <= 0 disables rate limiting.
func NewDispatcher(sender Sender, perSecond float64, concurrency int) *Dispatcher {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		sender:      sender,
		limiter:     rate.NewLimiter(limit, burst),
		concurrency: concurrency,
	}
}

// Dispatch sends every message and returns how many failed.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []model.Message) int {
	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for _, msg := range msgs {
		g.Go(func() error {
			if err := d.limiter.Wait(ctx); err != nil {
				failed.Add(1)
				metrics.Notifications.WithLabelValues("cancelled").Inc()
				return nil
			}
			if err := d.sender.Send(ctx, msg); err != nil {
				failed.Add(1)
				metrics.Notifications.WithLabelValues("error").Inc()
				log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("send message")
				return nil
			}
			metrics.Notifications.WithLabelValues("ok").Inc()
			return nil
		})
	}
	_ = g.Wait()
	return int(failed.Load())
}
