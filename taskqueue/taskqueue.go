// Package taskqueue runs side effects that must not block an operator's
// keystroke. Tasks are persisted in badger before they are acknowledged and
// are redelivered until their handler succeeds, so handlers must be idempotent.
package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

const (
	taskPrefix   = "task:"
	dedupePrefix = "taskkey:"
	deadPrefix   = "taskdead:"
)

// Handler processes one task payload
type Handler func(ctx context.Context, payload json.RawMessage) error

// Task is the persisted form of queued work
type Task struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	DedupeKey string          `json:"dedupe_key,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Config tunes the queue workers
type Config struct {
	Workers     int
	MaxAttempts int
	Backoff     time.Duration
}

// Queue is an at-least-once background task queue persisted in badger
type Queue struct {
	db       *badger.DB
	logger   cmtlog.Logger
	clock    clock.Clock
	config   Config
	handlers map[string]Handler

	mu      sync.Mutex
	running map[string]bool
	ready   chan string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// outcome is the result of one delivery
type outcome int

const (
	outcomeDone outcome = iota
	outcomeFailed
	// outcomeBusy is a delivery that found the task already running
	outcomeBusy
)

// maxBackoffShift caps the retry delay at 64 backoff units
const maxBackoffShift = 6

func NewQueue(db *badger.DB, logger cmtlog.Logger, clk clock.Clock, config Config) *Queue {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.Backoff <= 0 {
		config.Backoff = time.Second
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Queue{
		db:       db,
		logger:   logger.With("module", "taskqueue"),
		clock:    clk,
		config:   config,
		handlers: map[string]Handler{},
		running:  map[string]bool{},
		ready:    make(chan string, 1024),
	}
}

// Register binds a handler to a task kind; call before Start
func (q *Queue) Register(kind string, h Handler) {
	q.handlers[kind] = h
}

// Enqueue persists a task. A non-empty dedupeKey collapses repeated enqueues
// while an earlier task with the same key is still pending.
func (q *Queue) Enqueue(ctx context.Context, kind, dedupeKey string, payload any) (string, error) {
	if _, ok := q.handlers[kind]; !ok {
		return "", fmt.Errorf("no handler registered for task kind %q", kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}

	task := Task{
		ID:        "TASK-" + uuid.New().String(),
		Kind:      kind,
		DedupeKey: dedupeKey,
		Payload:   raw,
		CreatedAt: q.clock.Now(),
	}

	id := task.ID
	err = q.db.Update(func(txn *badger.Txn) error {
		if dedupeKey != "" {
			item, err := txn.Get([]byte(dedupePrefix + dedupeKey))
			if err == nil {
				return item.Value(func(val []byte) error {
					id = string(val)
					return nil
				})
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set([]byte(dedupePrefix+dedupeKey), []byte(task.ID)); err != nil {
				return err
			}
		}
		data, err := json.Marshal(task)
		if err != nil {
			return err
		}
		return txn.Set([]byte(taskPrefix+task.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to persist %s task: %w", kind, err)
	}

	if id != task.ID {
		q.logger.Debug("Task already pending", "kind", kind, "dedupe_key", dedupeKey, "task_id", id)
		return id, nil
	}

	q.logger.Info("Task enqueued", "kind", kind, "task_id", id, "dedupe_key", dedupeKey)
	q.push(id)
	return id, nil
}

// Start recovers tasks left pending by a previous run and launches the workers
func (q *Queue) Start(ctx context.Context) error {
	pending, err := q.Pending()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}

	for _, t := range pending {
		q.logger.Info("Recovered pending task", "kind", t.Kind, "task_id", t.ID, "attempts", t.Attempts)
		q.push(t.ID)
	}
	return nil
}

// Stop halts the workers; unfinished tasks stay persisted for the next Start
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

// RunPending processes every pending task inline and returns how many succeeded.
// It ignores backoff and is meant for tools and tests that run without workers.
func (q *Queue) RunPending(ctx context.Context) (int, error) {
	pending, err := q.Pending()
	if err != nil {
		return 0, err
	}
	done := 0
	for _, t := range pending {
		if q.process(ctx, t.ID) == outcomeDone {
			done++
		}
	}
	return done, nil
}

// Pending lists the persisted tasks not yet completed
func (q *Queue) Pending() ([]Task, error) {
	return q.list(taskPrefix)
}

// Dead lists tasks that exhausted their attempts
func (q *Queue) Dead() ([]Task, error) {
	return q.list(deadPrefix)
}

func (q *Queue) list(prefix string) ([]Task, error) {
	var tasks []Task
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var t Task
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			})
			if err != nil {
				return err
			}
			tasks = append(tasks, t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (q *Queue) push(id string) {
	select {
	case q.ready <- id:
	default:
		// a full channel only delays the task until the next Start recovers it
		q.logger.Error("Task channel full, task left for recovery", "task_id", id)
	}
}

func (q *Queue) worker(ctx context.Context, n int) {
	defer q.wg.Done()
	q.logger.Debug("Worker started", "worker", n)
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-q.ready:
			if q.process(ctx, id) == outcomeFailed {
				q.retryLater(ctx, id)
			}
		}
	}
}

func (q *Queue) retryLater(ctx context.Context, id string) {
	task, err := q.load(id)
	if err != nil || task == nil {
		return
	}
	delay := q.backoff(task.Attempts)
	go func() {
		select {
		case <-ctx.Done():
		case <-q.clock.After(delay):
			q.push(id)
		}
	}()
}

// backoff doubles the delay with every recorded attempt; a task with no
// recorded attempt waits one unit
func (q *Queue) backoff(attempts int) time.Duration {
	shift := min(max(attempts-1, 0), maxBackoffShift)
	return q.config.Backoff * time.Duration(1<<shift)
}

// process runs one delivery of a task
func (q *Queue) process(ctx context.Context, id string) outcome {
	q.mu.Lock()
	if q.running[id] {
		q.mu.Unlock()
		return outcomeBusy
	}
	q.running[id] = true
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		delete(q.running, id)
		q.mu.Unlock()
	}()

	task, err := q.load(id)
	if err != nil {
		q.logger.Error("Failed to load task", "task_id", id, "err", err)
		return outcomeFailed
	}
	if task == nil {
		// already completed by an earlier delivery
		return outcomeDone
	}

	handler, ok := q.handlers[task.Kind]
	if !ok {
		q.logger.Error("No handler for task", "kind", task.Kind, "task_id", id)
		q.bury(task, "no handler registered")
		return outcomeDone
	}

	task.Attempts++
	err = q.invoke(ctx, handler, task)
	if err == nil {
		if err := q.complete(task); err != nil {
			q.logger.Error("Failed to acknowledge task", "task_id", id, "err", err)
			return outcomeFailed
		}
		q.logger.Info("Task completed", "kind", task.Kind, "task_id", id, "attempts", task.Attempts)
		return outcomeDone
	}

	task.LastError = err.Error()
	if task.Attempts >= q.config.MaxAttempts {
		q.logger.Error("Task failed permanently", "kind", task.Kind, "task_id", id, "attempts", task.Attempts, "err", err)
		q.bury(task, err.Error())
		return outcomeDone
	}

	q.logger.Error("Task failed, will retry", "kind", task.Kind, "task_id", id, "attempts", task.Attempts, "err", err)
	if err := q.save(task); err != nil {
		q.logger.Error("Failed to record task attempt", "task_id", id, "err", err)
	}
	return outcomeFailed
}

func (q *Queue) invoke(ctx context.Context, h Handler, task *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return h(ctx, task.Payload)
}

func (q *Queue) load(id string) (*Task, error) {
	var task *Task
	err := q.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(taskPrefix + id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		task = &Task{}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, task)
		})
	})
	return task, err
}

func (q *Queue) save(task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(taskPrefix+task.ID), data)
	})
}

func (q *Queue) complete(task *Task) error {
	return q.db.Update(func(txn *badger.Txn) error {
		if task.DedupeKey != "" {
			if err := txn.Delete([]byte(dedupePrefix + task.DedupeKey)); err != nil {
				return err
			}
		}
		return txn.Delete([]byte(taskPrefix + task.ID))
	})
}

func (q *Queue) bury(task *Task, reason string) {
	task.LastError = reason
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	err = q.db.Update(func(txn *badger.Txn) error {
		if task.DedupeKey != "" {
			if err := txn.Delete([]byte(dedupePrefix + task.DedupeKey)); err != nil {
				return err
			}
		}
		if err := txn.Delete([]byte(taskPrefix + task.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(deadPrefix+task.ID), data)
	})
	if err != nil {
		q.logger.Error("Failed to bury task", "task_id", task.ID, "err", err)
	}
}
