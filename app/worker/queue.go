package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var jobsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "queue_jobs_processed_total",
		Help: "Queue jobs processed, labeled by kind and result",
	},
	[]string{"kind", "result"},
)

// Handler consumes one job. Returning an error wrapped with
// businessflow.Terminal dead-letters the job; other errors trigger a
// backoff retry until attempts run out.
type Handler func(ctx context.Context, job *Job) error

// QueueOptions tunes the redis queue
type QueueOptions struct {
	KeyPrefix         string
	Concurrency       int
	MaxAttempts       int
	BackoffBase       time.Duration
	PromoteInterval   time.Duration
	VisibilityTimeout time.Duration
	DeadLetterLimit   int64
}

func (o *QueueOptions) fillDefaults() {
	if o.KeyPrefix == "" {
		o.KeyPrefix = "dispatch"
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 5
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 5 * time.Second
	}
	if o.PromoteInterval <= 0 {
		o.PromoteInterval = time.Second
	}
	if o.VisibilityTimeout <= 0 {
		o.VisibilityTimeout = 2 * time.Minute
	}
	if o.DeadLetterLimit <= 0 {
		o.DeadLetterLimit = 1000
	}
}

// Counts is a point-in-time queue depth snapshot for health reporting
type Counts struct {
	Scheduled  int64 `json:"scheduled"`
	Ready      int64 `json:"ready"`
	Processing int64 `json:"processing"`
	Dead       int64 `json:"dead"`
}

// Queue is a durable at-least-once job queue on redis. Delayed jobs wait
// in a sorted set scored by run time; a promoter moves due jobs to a ready
// list consumed by blocking workers. In-flight jobs hold a lease; a reaper
// requeues jobs whose lease expired so a crashed worker cannot lose work.
type Queue struct {
	rdb       *redis.Client
	opts      QueueOptions
	handler   Handler
	exhausted func(ctx context.Context, job *Job, cause error)
	logger    *log.Logger

	keyScheduled  string
	keyReady      string
	keyProcessing string
	keyLeases     string
	keyDead       string
}

func NewQueue(rdb *redis.Client, opts QueueOptions, handler Handler, logger *log.Logger) *Queue {
	opts.fillDefaults()
	if logger == nil {
		logger = log.Default()
	}
	prefix := opts.KeyPrefix
	return &Queue{
		rdb:           rdb,
		opts:          opts,
		handler:       handler,
		logger:        logger,
		keyScheduled:  prefix + ":scheduled",
		keyReady:      prefix + ":ready",
		keyProcessing: prefix + ":processing",
		keyLeases:     prefix + ":leases",
		keyDead:       prefix + ":dead",
	}
}

// OnExhausted registers a callback invoked when a job runs out of retry
// attempts, just before it is dead-lettered. Must be set before Start.
func (q *Queue) OnExhausted(fn func(ctx context.Context, job *Job, cause error)) {
	q.exhausted = fn
}

// Push stores the job, delayed or immediately ready depending on RunAt
func (q *Queue) Push(ctx context.Context, job *Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	raw, err := job.Marshal()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if job.RunAt.After(now) {
		if err := q.rdb.ZAdd(ctx, q.keyScheduled, redis.Z{Score: float64(job.RunAt.Unix()), Member: raw}).Err(); err != nil {
			return fmt.Errorf("failed to schedule job: %w", err)
		}
		return nil
	}
	if err := q.rdb.LPush(ctx, q.keyReady, raw).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// EnqueueDispatch implements businessflow.DispatchEnqueuer
func (q *Queue) EnqueueDispatch(ctx context.Context, payload businessflow.DispatchJob, delay time.Duration) error {
	return q.Push(ctx, NewDispatchJob(payload, delay, q.opts.MaxAttempts))
}

// EnqueueDispatchBatch staggers jobs by baseDelay + i*interval
func (q *Queue) EnqueueDispatchBatch(ctx context.Context, payloads []businessflow.DispatchJob, baseDelay, interval time.Duration) error {
	for i, payload := range payloads {
		delay := baseDelay + time.Duration(i)*interval
		if err := q.Push(ctx, NewDispatchJob(payload, delay, q.opts.MaxAttempts)); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueRegistrationCheck implements businessflow.RegistrationCheckEnqueuer
func (q *Queue) EnqueueRegistrationCheck(ctx context.Context, businessID uint, stage int, delay time.Duration) error {
	return q.Push(ctx, NewRegistrationCheckJob(businessID, stage, delay, q.opts.MaxAttempts))
}

// Counts reports queue depths for the health endpoint
func (q *Queue) Counts(ctx context.Context) (*Counts, error) {
	pipe := q.rdb.Pipeline()
	scheduled := pipe.ZCard(ctx, q.keyScheduled)
	ready := pipe.LLen(ctx, q.keyReady)
	processing := pipe.LLen(ctx, q.keyProcessing)
	dead := pipe.LLen(ctx, q.keyDead)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read queue counts: %w", err)
	}
	return &Counts{
		Scheduled:  scheduled.Val(),
		Ready:      ready.Val(),
		Processing: processing.Val(),
		Dead:       dead.Val(),
	}, nil
}

// Start launches the promoter, the lease reaper, and the worker pool.
// The returned stop function cancels everything and waits for drain.
func (q *Queue) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		q.promoteLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		q.reapLoop(ctx)
	}()

	for i := 0; i < q.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.workLoop(ctx)
		}()
	}

	return func() {
		cancel()
		wg.Wait()
	}
}

// promoteLoop moves due scheduled jobs onto the ready list
func (q *Queue) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(q.opts.PromoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.promoteDue(ctx); err != nil && ctx.Err() == nil {
				q.logger.Printf("queue: promote failed: %v", err)
			}
		}
	}
}

func (q *Queue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	due, err := q.rdb.ZRangeByScore(ctx, q.keyScheduled, &redis.ZRangeBy{Min: "-inf", Max: now, Count: 100}).Result()
	if err != nil {
		return err
	}
	for _, raw := range due {
		// ZRem-then-LPush: a promoter crash between the two drops the job,
		// so push first and tolerate the rare duplicate (at-least-once)
		if err := q.rdb.LPush(ctx, q.keyReady, raw).Err(); err != nil {
			return err
		}
		if err := q.rdb.ZRem(ctx, q.keyScheduled, raw).Err(); err != nil {
			return err
		}
	}
	return nil
}

// reapLoop requeues jobs whose lease expired (crashed or stuck worker)
func (q *Queue) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(q.opts.VisibilityTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.reapExpired(ctx); err != nil && ctx.Err() == nil {
				q.logger.Printf("queue: reap failed: %v", err)
			}
		}
	}
}

func (q *Queue) reapExpired(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	expired, err := q.rdb.ZRangeByScore(ctx, q.keyLeases, &redis.ZRangeBy{Min: "-inf", Max: now, Count: 100}).Result()
	if err != nil {
		return err
	}
	for _, raw := range expired {
		q.logger.Printf("queue: requeueing job with expired lease")
		if err := q.rdb.LPush(ctx, q.keyReady, raw).Err(); err != nil {
			return err
		}
		q.rdb.LRem(ctx, q.keyProcessing, 1, raw)
		q.rdb.ZRem(ctx, q.keyLeases, raw)
	}
	return nil
}

func (q *Queue) workLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		raw, err := q.rdb.BLMove(ctx, q.keyReady, q.keyProcessing, "RIGHT", "LEFT", 5*time.Second).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			q.logger.Printf("queue: dequeue failed: %v", err)
			continue
		}

		lease := time.Now().UTC().Add(q.opts.VisibilityTimeout)
		if err := q.rdb.ZAdd(ctx, q.keyLeases, redis.Z{Score: float64(lease.Unix()), Member: raw}).Err(); err != nil {
			q.logger.Printf("queue: lease failed: %v", err)
		}

		q.process(ctx, raw)
	}
}

func (q *Queue) process(ctx context.Context, raw string) {
	job, err := UnmarshalJob(raw)
	if err != nil {
		q.logger.Printf("queue: dropping undecodable job: %v", err)
		q.deadLetter(ctx, raw)
		q.ack(ctx, raw)
		return
	}

	handlerErr := q.handler(ctx, job)
	q.ack(ctx, raw)

	switch {
	case handlerErr == nil:
		jobsProcessedTotal.WithLabelValues(string(job.Kind), "ok").Inc()

	case businessflow.IsDequeuedTooEarly(handlerErr):
		// Not a real failure: put it back on the schedule without
		// consuming an attempt
		runAt := job.RunAt
		if !runAt.After(time.Now().UTC()) {
			runAt = time.Now().UTC().Add(q.opts.BackoffBase)
		}
		job.RunAt = runAt
		if err := q.Push(ctx, job); err != nil {
			q.logger.Printf("queue: reschedule early job %s failed: %v", job.ID, err)
		}

	case businessflow.IsTerminal(handlerErr):
		q.logger.Printf("queue: job %s kind=%s terminally failed: %v", job.ID, job.Kind, handlerErr)
		jobsProcessedTotal.WithLabelValues(string(job.Kind), "terminal").Inc()
		q.deadLetter(ctx, raw)

	default:
		job.Attempt++
		if job.Attempt >= job.MaxAttempts {
			q.logger.Printf("queue: job %s kind=%s exhausted %d attempts: %v", job.ID, job.Kind, job.Attempt, handlerErr)
			jobsProcessedTotal.WithLabelValues(string(job.Kind), "exhausted").Inc()
			// Exhaustion is as terminal as a rejected send; give the
			// domain a chance to record it before the job leaves the queue
			if q.exhausted != nil {
				q.exhausted(ctx, job, handlerErr)
			}
			q.deadLetter(ctx, raw)
			return
		}
		backoff := q.opts.BackoffBase << (job.Attempt - 1)
		job.RunAt = time.Now().UTC().Add(backoff)
		q.logger.Printf("queue: job %s kind=%s attempt %d/%d failed, retrying in %s: %v",
			job.ID, job.Kind, job.Attempt, job.MaxAttempts, backoff, handlerErr)
		jobsProcessedTotal.WithLabelValues(string(job.Kind), "retry").Inc()
		if err := q.Push(ctx, job); err != nil {
			q.logger.Printf("queue: retry push for job %s failed: %v", job.ID, err)
		}
	}
}

func (q *Queue) ack(ctx context.Context, raw string) {
	q.rdb.LRem(ctx, q.keyProcessing, 1, raw)
	q.rdb.ZRem(ctx, q.keyLeases, raw)
}

// deadLetter keeps a bounded tail of terminal jobs for operational
// visibility; invite and sms rows remain the system of record
func (q *Queue) deadLetter(ctx context.Context, raw string) {
	if err := q.rdb.LPush(ctx, q.keyDead, raw).Err(); err != nil {
		q.logger.Printf("queue: dead letter push failed: %v", err)
		return
	}
	q.rdb.LTrim(ctx, q.keyDead, 0, q.opts.DeadLetterLimit-1)
}
