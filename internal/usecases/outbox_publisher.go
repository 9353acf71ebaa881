package usecases

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainbus "pay-chain.backend/internal/domain/bus"
	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/pkg/logger"
	"pay-chain.backend/pkg/metrics"
)

// PublisherConfig mirrors spec.md §4.5's configuration knobs.
type PublisherConfig struct {
	BatchSize             int
	MaxRetries            int
	TickInterval           time.Duration
	RetentionDays          int
	CleanupHour            int // local hour the daily cleanup task runs, default 2
	ExhaustedScanInterval time.Duration
}

func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		BatchSize:             100,
		MaxRetries:            5,
		TickInterval:          5 * time.Second,
		RetentionDays:         7,
		CleanupHour:           2,
		ExhaustedScanInterval: time.Hour,
	}
}

// OutboxPublisher is the C5 long-running loop: it scans the outbox and
// writes to the message bus. Ticks run strictly serially via an atomic
// re-entrancy guard, mirroring the ticker + stop-channel shape of the
// teacher's background expiry job, generalized with a guard because
// publisher ticks can legitimately overrun their interval.
type OutboxPublisher struct {
	outbox       repositories.OutboxRepository
	bus          domainbus.Publisher
	cfg          PublisherConfig
	isProcessing atomic.Bool
	stop         chan struct{}
	wg           sync.WaitGroup
}

func NewOutboxPublisher(outbox repositories.OutboxRepository, bus domainbus.Publisher, cfg PublisherConfig) *OutboxPublisher {
	return &OutboxPublisher{
		outbox: outbox,
		bus:    bus,
		cfg:    cfg,
		stop:   make(chan struct{}),
	}
}

// Start launches the main tick loop plus the cleanup and exhausted-scan
// sub-tasks as independent goroutines.
func (p *OutboxPublisher) Start(ctx context.Context) {
	p.wg.Add(3)
	go p.runTickLoop(ctx)
	go p.runCleanupLoop(ctx)
	go p.runExhaustedScanLoop(ctx)
}

// Stop requests cooperative shutdown and waits for in-flight work, up to
// the caller's context deadline.
func (p *OutboxPublisher) Stop(ctx context.Context) error {
	close(p.stop)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxPublisher) runTickLoop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick is one logical task. If a previous tick is still running, this one
// is skipped entirely (the serial-execution guarantee of spec.md §5).
func (p *OutboxPublisher) tick(ctx context.Context) {
	if !p.isProcessing.CompareAndSwap(false, true) {
		return
	}
	defer p.isProcessing.Store(false)

	start := time.Now()
	defer func() { metrics.TickDuration.Observe(time.Since(start).Seconds()) }()

	rows, err := p.outbox.FetchUnpublished(ctx, p.cfg.BatchSize, p.cfg.MaxRetries)
	if err != nil {
		logger.Error(ctx, "outbox fetch failed", zap.Error(err))
		return
	}
	for _, row := range rows {
		p.publishOne(ctx, row)
	}
}

func (p *OutboxPublisher) publishOne(ctx context.Context, row *entities.OutboxRecord) {
	topic, ok := entities.RoutingTable[row.EventType]
	if !ok {
		p.retry(ctx, row.ID, "Unknown event type")
		return
	}

	headers := map[string]string{
		"eventType":     string(row.EventType),
		"eventVersion":  "1.0",
		"source":        "payment-service",
		"correlationId": row.AggregateID,
		"messageId":     uuid.New().String(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}

	err := p.bus.Publish(ctx, domainbus.Message{
		Subject: topic,
		Key:     row.AggregateID,
		Payload: row.Payload,
		Headers: headers,
	})
	if err != nil {
		p.retry(ctx, row.ID, err.Error())
		return
	}

	if err := p.outbox.MarkPublished(ctx, row.ID); err != nil {
		logger.Error(ctx, "mark published failed", zap.String("outbox_id", row.ID), zap.Error(err))
		return
	}
	metrics.OutboxPublished.Inc()
}

func (p *OutboxPublisher) retry(ctx context.Context, id, reason string) {
	if err := p.outbox.IncrementRetry(ctx, id, reason); err != nil {
		logger.Error(ctx, "increment retry failed", zap.String("outbox_id", id), zap.Error(err))
	}
	metrics.OutboxRetried.Inc()
}

func (p *OutboxPublisher) runCleanupLoop(ctx context.Context) {
	defer p.wg.Done()
	for {
		wait := durationUntilHour(time.Now(), p.cfg.CleanupHour)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-p.stop:
			timer.Stop()
			return
		case <-timer.C:
			p.cleanup(ctx)
		}
	}
}

func (p *OutboxPublisher) cleanup(ctx context.Context) {
	deleted, err := p.outbox.DeletePublishedOlderThan(ctx, p.cfg.RetentionDays)
	if err != nil {
		logger.Error(ctx, "outbox cleanup failed", zap.Error(err))
		return
	}
	metrics.OutboxCleanedUp.Add(float64(deleted))
}

func (p *OutboxPublisher) runExhaustedScanLoop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.ExhaustedScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.scanExhausted(ctx)
		}
	}
}

func (p *OutboxPublisher) scanExhausted(ctx context.Context) {
	rows, err := p.outbox.FetchExhausted(ctx, p.cfg.MaxRetries)
	if err != nil {
		logger.Error(ctx, "exhausted scan failed", zap.Error(err))
		return
	}
	metrics.OutboxExhausted.Set(float64(len(rows)))
	if len(rows) == 0 {
		return
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	logger.Warn(ctx, "outbox records exhausted retries", zap.Int("count", len(rows)), zap.Strings("ids", ids))
}

// durationUntilHour computes the wait until the next occurrence of hour:00
// local time, today if it hasn't passed yet, tomorrow otherwise.
func durationUntilHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
