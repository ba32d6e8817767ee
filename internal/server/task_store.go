package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"archive-viewer/internal/domain"
)

// ErrTaskNotFound возвращается для неизвестной или уже удаленной задачи.
var ErrTaskNotFound = errors.New("task not found")

// TaskStatus - стадия фоновой сборки сводки.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task - задача построения сводки по архиву.
type Task struct {
	ID         string           `json:"task_id"`
	Status     TaskStatus       `json:"status"`
	Result     *domain.Overview `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	ExpiresAt  time.Time        `json:"expires_at"`
}

func (t *Task) done() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// TaskStore хранит задачи построения сводки. Одновременно выполняется не
// больше одной: повторный запуск возвращает уже идущую задачу.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[string]*Task
	active string
	now    func() time.Time
}

// NewTaskStore создает новый экземпляр TaskStore
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*Task),
		now:   time.Now,
	}
}

// Begin регистрирует задачу id, если ни одна задача не выполняется.
// Иначе возвращает идентификатор выполняющейся задачи и started=false.
func (ts *TaskStore) Begin(id string, ttl time.Duration) (taskID string, started bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if t, ok := ts.tasks[ts.active]; ok && !t.done() {
		return t.ID, false
	}

	now := ts.now()
	ts.tasks[id] = &Task{
		ID:        id,
		Status:    TaskStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	ts.active = id
	return id, true
}

// MarkProcessing переводит задачу в стадию выполнения.
func (ts *TaskStore) MarkProcessing(id string) error {
	return ts.modify(id, func(t *Task) {
		t.Status = TaskStatusProcessing
	})
}

// Finish сохраняет итог задачи: сводку или ошибку.
func (ts *TaskStore) Finish(id string, ov *domain.Overview, err error) error {
	return ts.modify(id, func(t *Task) {
		now := ts.now()
		t.FinishedAt = &now
		if err != nil {
			t.Status = TaskStatusFailed
			t.Error = err.Error()
			return
		}
		t.Status = TaskStatusCompleted
		t.Result = ov
	})
}

func (ts *TaskStore) modify(id string, fn func(*Task)) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	t, ok := ts.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	fn(t)
	return nil
}

// Get возвращает копию задачи.
func (ts *TaskStore) Get(id string) (Task, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	t, ok := ts.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return *t, nil
}

// Len возвращает число хранимых задач
func (ts *TaskStore) Len() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.tasks)
}

// CleanupExpired удаляет просроченные завершенные задачи. Выполняющаяся задача не удаляется.
func (ts *TaskStore) CleanupExpired() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now()
	for id, t := range ts.tasks {
		if t.done() && now.After(t.ExpiresAt) {
			delete(ts.tasks, id)
		}
	}
}

// StartCleanupTicker запускает тикер для периодической очистки просроченных задач
func (ts *TaskStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ts.CleanupExpired()
			}
		}
	}()
}
