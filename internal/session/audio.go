package session

import (
	"slices"
	"time"

	"archive-viewer/internal/ports"

	"github.com/google/uuid"
)

// ClaimAudio отдает слот воспроизведения плееру h. Если слот занят другим плеером,
// тот сначала получает Stop, и только после этого h записывается как активный.
// Уведомление о паузе, которое остановленный плеер пришлет в ответ на Stop, будет проигнорировано.
func (s *Store) ClaimAudio(h ports.AudioHandle) {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()

	id := h.ID()

	s.mu.Lock()
	prev := s.playing
	if prev != nil && prev.ID() == id {
		s.mu.Unlock()
		return
	}
	// Незакрытое подавление самого h устарело: h снова играет по своей воле
	delete(s.suppressing, id)
	if prev != nil {
		s.suppressing[prev.ID()]++
	}
	s.mu.Unlock()

	if prev != nil {
		s.log.Debug("Остановка предыдущего плеера", "previous", prev.ID(), "next", id)
		// Stop вызывается без блокировки: плеер может синхронно сообщить о паузе
		prev.Stop()
	}

	s.update(func(st *State) bool {
		s.playing = h
		st.PlayingID = id
		return true
	})
}

// AudioPaused обрабатывает уведомление плеера о паузе. Пауза, вызванная принудительной
// остановкой из ClaimAudio, поглощается; пауза активного плеера освобождает слот.
func (s *Store) AudioPaused(id string) {
	s.update(func(st *State) bool {
		if n := s.suppressing[id]; n > 0 {
			if n == 1 {
				delete(s.suppressing, id)
			} else {
				s.suppressing[id] = n - 1
			}
			return false
		}
		return s.release(st, id)
	})
}

// AudioEnded обрабатывает окончание клипа. Если известен следующий клип цепочки,
// его воспроизведение запускается через паузу автозапуска.
func (s *Store) AudioEnded(id, nextSrc string) {
	s.update(func(st *State) bool {
		return s.release(st, id)
	})

	if nextSrc == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()
		if !s.TriggerPlay(nextSrc) {
			s.log.Debug("Нет плеера для следующего клипа", "src", nextSrc)
		}
	})
	s.timers[t] = struct{}{}
}

// release освобождает слот, если id - активный плеер. Вызывается под s.mu.
func (s *Store) release(st *State, id string) bool {
	if s.playing == nil || s.playing.ID() != id {
		return false
	}
	s.playing = nil
	st.PlayingID = ""
	return true
}

// Playing возвращает активный плеер или nil.
func (s *Store) Playing() ports.AudioHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// RegisterPlayer регистрирует функцию запуска воспроизведения для src.
// Возвращаемая функция снимает регистрацию.
func (s *Store) RegisterPlayer(src string, play func()) (unregister func()) {
	id := uuid.NewString()

	s.mu.Lock()
	s.players[src] = append(s.players[src], player{id: id, play: play})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		left := slices.DeleteFunc(s.players[src], func(p player) bool { return p.id == id })
		if len(left) == 0 {
			delete(s.players, src)
			return
		}
		s.players[src] = left
	}
}

// TriggerPlay запускает первый зарегистрированный плеер для src.
// Возвращает false, если такого плеера нет.
func (s *Store) TriggerPlay(src string) bool {
	s.mu.Lock()
	ps := s.players[src]
	var play func()
	if len(ps) > 0 {
		play = ps[0].play
	}
	s.mu.Unlock()

	if play == nil {
		return false
	}
	play()
	return true
}
