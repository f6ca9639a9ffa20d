package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReceipt = "jobs:receipt"
	QueueEmail   = "jobs:email"

	JobReceipt = "receipt"
	JobEmail   = "email"

	// MaxJobAttempts is how many times a job is handed to its handler before
	// it is moved to the dead letter queue.
	MaxJobAttempts = 3
)

var queues = []string{QueueReceipt, QueueEmail}

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes the payload of one job type. A returned error makes the
// pool retry the job until MaxJobAttempts is reached.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

func (f HandlerFunc) Process(ctx context.Context, payload json.RawMessage) error {
	return f(ctx, payload)
}

// ErrPermanent marks a failure that retrying cannot fix. Wrapped errors are
// sent straight to the DLQ.
var ErrPermanent = errors.New("permanent job failure")

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// ReceiptJobPayload asks for the PDF receipt of a recorded sale.
type ReceiptJobPayload struct {
	SaleID string `json:"sale_id"`
}

// EnqueueReceipt pushes a receipt job for the sale.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, saleID uuid.UUID) error {
	return d.enqueue(ctx, QueueReceipt, JobReceipt, ReceiptJobPayload{SaleID: saleID.String()})
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return d.push(ctx, queue, Job{Type: jobType, Payload: data})
}

func (d *Dispatcher) push(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues and routes each job to the handler
// registered for its type.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{rdb: rdb, handlers: make(map[string]Handler)}
}

// Handle registers h for jobType. Not safe to call after Start.
func (p *Pool) Handle(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Start launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, so idle workers use no CPU.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], []byte(result[1]))
		}
	}
}

// outcome is what the pool does with a job after its handler ran.
type outcome int

const (
	outcomeDone outcome = iota
	outcomeRetry
	outcomeDead
)

// decide maps a handler result and the attempts already made to an outcome.
func decide(err error, attempts int) outcome {
	switch {
	case err == nil:
		return outcomeDone
	case errors.Is(err, ErrPermanent):
		return outcomeDead
	case attempts >= MaxJobAttempts:
		return outcomeDead
	default:
		return outcomeRetry
	}
}

func (p *Pool) process(ctx context.Context, queue string, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job, "no handler registered")
		return
	}

	job.Attempts++
	err := h.Process(ctx, job.Payload)
	switch decide(err, job.Attempts) {
	case outcomeDone:
		log.Debug().Str("type", job.Type).Int("attempts", job.Attempts).Msg("job processed")
	case outcomeRetry:
		log.Warn().Err(err).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, requeueing")
		d := Dispatcher{rdb: p.rdb}
		if perr := d.push(ctx, queue, job); perr != nil {
			log.Error().Err(perr).Str("queue", queue).Msg("failed to requeue job")
		}
	case outcomeDead:
		SendToDLQ(ctx, p.rdb, queue, job, err.Error())
	}
}
