package workers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/eslsheets/internal/services"
)

// RunExecutor is the part of services.ExtractionService the pool needs.
type RunExecutor interface {
	Execute(ctx context.Context, runID string) error
}

// ExtractionWorkerPool consumes queued extraction runs from a redis stream
// with a consumer group. Every message is acked once handled; a run that
// fails is recorded as failed by the executor, not redelivered.
type ExtractionWorkerPool struct {
	Redis      *redis.Client
	Runs       RunExecutor
	NumWorkers int

	// RunTimeout bounds a single run, including remote retries.
	RunTimeout time.Duration

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string

	wg sync.WaitGroup
}

func (p *ExtractionWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Runs == nil {
		return errors.New("ExtractionWorkerPool missing dependency: Redis/Runs must be set")
	}
	if p.Stream == "" {
		p.Stream = services.ExtractionStream
	}
	if p.Group == "" {
		p.Group = "extraction-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.RunTimeout <= 0 {
		p.RunTimeout = 5 * time.Minute
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	if err := p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err(); err != nil && !isBusyGroup(err) {
		return fmt.Errorf("create consumer group %s on %s: %w", p.Group, p.Stream, err)
	}

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runConsumer(ctx, consumer)
		}()
	}
	return nil
}

// Wait blocks until every consumer has returned after ctx is cancelled.
func (p *ExtractionWorkerPool) Wait() { p.wg.Wait() }

func (p *ExtractionWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.HandleMessage(ctx, msg)
				_ = p.Redis.XAck(context.WithoutCancel(ctx), p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// HandleMessage executes the run named by one stream message.
func (p *ExtractionWorkerPool) HandleMessage(ctx context.Context, msg redis.XMessage) {
	runID, _ := msg.Values["run_id"].(string)
	log := p.logger().WithFields(logrus.Fields{"redis_id": msg.ID, "run_id": runID})
	if runID == "" {
		log.Warn("dropping message without run_id")
		return
	}

	timeout := p.RunTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("extraction run panicked: %v", rec)
		}
	}()

	start := time.Now()
	if err := p.Runs.Execute(runCtx, runID); err != nil {
		log.WithError(err).WithField("duration_ms", time.Since(start).Milliseconds()).Warn("extraction run failed")
		return
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("extraction run done")
}

func (p *ExtractionWorkerPool) logger() *logrus.Logger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}

// isBusyGroup reports the error redis returns when the group already exists.
func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
