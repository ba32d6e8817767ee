// Package session хранит общее состояние сеанса просмотра архива: выбранный день и переписку,
// полноэкранный просмотрщик медиа и единственный активный аудиоплеер.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"archive-viewer/internal/domain"
	"archive-viewer/internal/ports"

	"github.com/google/uuid"
)

// HintPreferenceKey - ключ флага "подсказка по клавишам показана" в хранилище настроек.
const HintPreferenceKey = "keyboardHintShown"

// DefaultAutoAdvanceDelay - пауза перед автозапуском следующего голосового сообщения.
const DefaultAutoAdvanceDelay = 100 * time.Millisecond

// Viewer - состояние полноэкранного просмотрщика.
type Viewer struct {
	Open     bool
	Item     *domain.MediaItem
	Sequence []domain.MediaItem
	Index    int
}

// State - согласованный снимок состояния сеанса.
type State struct {
	// Version растет с каждым изменением. Подписчик может отбросить снимок старее уже полученного.
	Version       uint64
	Account       string
	Date          string
	Conversations []domain.Conversation
	Selected      *domain.Conversation
	Viewer        Viewer
	PlayingID     string
	HintSeen      bool
}

// Option определяет функциональную опцию для Store.
type Option func(*Store)

// WithPreferences задает хранилище флага подсказки.
func WithPreferences(p ports.PreferenceStore) Option {
	return func(s *Store) {
		s.prefs = p
	}
}

// WithAutoAdvanceDelay задает паузу перед автозапуском следующего клипа.
func WithAutoAdvanceDelay(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithLogger задает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

type subscriber struct {
	id string
	fn func(State)
}

type player struct {
	id   string
	play func()
}

// Store - единственный владелец состояния сеанса. Все мутаторы синхронно уведомляют
// подписчиков в порядке подписки, прежде чем вернуть управление.
// Уведомления доставляются вне блокировки, поэтому подписчик может вызывать мутаторы.
type Store struct {
	mu    sync.Mutex
	state State
	subs  []subscriber

	// claimMu упорядочивает передачу аудио между плеерами
	claimMu     sync.Mutex
	playing     ports.AudioHandle
	suppressing map[string]int
	players     map[string][]player
	timers      map[*time.Timer]struct{}
	closed      bool

	prefs ports.PreferenceStore
	delay time.Duration
	log   *slog.Logger
}

// NewStore создает новое пустое состояние сеанса.
func NewStore(opts ...Option) *Store {
	s := &Store{
		suppressing: make(map[string]int),
		players:     make(map[string][]player),
		timers:      make(map[*time.Timer]struct{}),
		delay:       DefaultAutoAdvanceDelay,
		log:         slog.Default().With("component", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State возвращает текущий снимок состояния.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe регистрирует подписчика. Возвращаемая функция отменяет подписку.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	id := uuid.NewString()

	s.mu.Lock()
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

// update применяет изменение атомарно и уведомляет подписчиков.
// Если mutate вернул false, состояние не изменилось и уведомления не будет.
func (s *Store) update(mutate func(st *State) bool) {
	s.mu.Lock()
	if !mutate(&s.state) {
		s.mu.Unlock()
		return
	}
	s.state.Version++
	snap := s.snapshot()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

// snapshot вызывается под s.mu.
func (s *Store) snapshot() State {
	snap := s.state
	snap.Conversations = slices.Clone(s.state.Conversations)
	snap.Viewer.Sequence = slices.Clone(s.state.Viewer.Sequence)
	if s.state.Viewer.Item != nil {
		item := *s.state.Viewer.Item
		snap.Viewer.Item = &item
	}
	return snap
}

// SetAccount задает имя владельца архива.
func (s *Store) SetAccount(username string) {
	s.update(func(st *State) bool {
		st.Account = username
		return true
	})
}

// SetDay задает текущий день и его переписки. Выбранная переписка, которой нет
// в новом дне, сбрасывается вместе с просмотрщиком.
func (s *Store) SetDay(date string, conversations []domain.Conversation) {
	s.update(func(st *State) bool {
		st.Date = date
		st.Conversations = slices.Clone(conversations)
		if st.Selected == nil {
			return true
		}
		for i := range st.Conversations {
			if st.Conversations[i].ID == st.Selected.ID {
				st.Selected = &st.Conversations[i]
				return true
			}
		}
		st.Selected = nil
		st.Viewer = Viewer{}
		return true
	})
}

// SelectConversation выбирает переписку, nil снимает выбор.
// Соответствие текущему дню не проверяется.
func (s *Store) SelectConversation(conv *domain.Conversation) {
	s.update(func(st *State) bool {
		st.Selected = conv
		return true
	})
}

// OpenViewer открывает просмотрщик на item внутри последовательности seq.
// Индекс вне диапазона заменяется позицией item в seq, а если ее нет, нулем.
func (s *Store) OpenViewer(item domain.MediaItem, seq []domain.MediaItem, index int) {
	if len(seq) == 0 {
		seq = []domain.MediaItem{item}
	}
	if index < 0 || index >= len(seq) {
		pos := slices.IndexFunc(seq, func(m domain.MediaItem) bool { return m.Path == item.Path })
		if pos < 0 {
			// item не из этой последовательности: показываем первый элемент
			pos = 0
			item = seq[0]
		}
		index = pos
	}

	s.update(func(st *State) bool {
		st.Viewer = Viewer{
			Open:     true,
			Item:     &item,
			Sequence: slices.Clone(seq),
			Index:    index,
		}
		return true
	})
}

// NextMedia переходит к следующему элементу, с последнего на первый.
func (s *Store) NextMedia() {
	s.step(1)
}

// PrevMedia переходит к предыдущему элементу, с первого на последний.
func (s *Store) PrevMedia() {
	s.step(-1)
}

func (s *Store) step(delta int) {
	s.update(func(st *State) bool {
		n := len(st.Viewer.Sequence)
		if !st.Viewer.Open || n == 0 {
			return false
		}
		st.Viewer.Index = ((st.Viewer.Index+delta)%n + n) % n
		item := st.Viewer.Sequence[st.Viewer.Index]
		st.Viewer.Item = &item
		return true
	})
}

// CloseViewer закрывает просмотрщик и забывает последовательность.
func (s *Store) CloseViewer() {
	s.update(func(st *State) bool {
		if !st.Viewer.Open && st.Viewer.Sequence == nil {
			return false
		}
		st.Viewer = Viewer{}
		return true
	})
}

// RestorePreferences читает сохраненный флаг подсказки.
func (s *Store) RestorePreferences(ctx context.Context) error {
	if s.prefs == nil {
		return nil
	}
	seen, err := s.prefs.GetBool(ctx, HintPreferenceKey)
	if err != nil {
		return fmt.Errorf("не удалось прочитать %s: %w", HintPreferenceKey, err)
	}
	s.update(func(st *State) bool {
		if st.HintSeen == seen {
			return false
		}
		st.HintSeen = seen
		return true
	})
	return nil
}

// HintSeen сообщает, видел ли пользователь подсказку по клавишам.
func (s *Store) HintSeen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.HintSeen
}

// MarkHintSeen запоминает, что подсказка показана. Флаг переживает перезапуск,
// если задано хранилище настроек.
func (s *Store) MarkHintSeen(ctx context.Context) error {
	if s.prefs != nil {
		if err := s.prefs.SetBool(ctx, HintPreferenceKey, true); err != nil {
			return fmt.Errorf("не удалось сохранить %s: %w", HintPreferenceKey, err)
		}
	}
	s.update(func(st *State) bool {
		if st.HintSeen {
			return false
		}
		st.HintSeen = true
		return true
	})
	return nil
}

// Close останавливает отложенные автозапуски.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for t := range s.timers {
		t.Stop()
	}
	clear(s.timers)
}
