package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"archive-viewer/internal/core/services"
	"archive-viewer/internal/domain"
	"archive-viewer/internal/loader"
	"archive-viewer/internal/palette"
	"archive-viewer/internal/pkg/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// StatusClientClosedRequest пишется в лог, когда клиент ушел, не дождавшись ответа.
const StatusClientClosedRequest = 499

const (
	// taskTTL - сколько хранится запись о задаче построения сводки
	taskTTL             = time.Hour
	taskCleanupInterval = 10 * time.Minute
)

// ArchiveService определяет операции над архивом, которые нужны API.
type ArchiveService interface {
	Index(ctx context.Context) (*domain.IndexResult, error)
	AvailableDates(ctx context.Context) ([]string, error)
	Day(ctx context.Context, date string) (*domain.DayData, error)
	Overview(ctx context.Context) (*domain.Overview, error)
	ConversationDates(ctx context.Context, conversationID string) ([]string, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	archive    ArchiveService
	taskStore  *TaskStore
	log        *slog.Logger

	// baseCtx живет до Shutdown, на нем выполняются фоновые задачи
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New создает новый экземпляр Server
func New(cfg *config.Config, archive ArchiveService, taskStore *TaskStore) (*Server, error) {
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		archive:   archive,
		taskStore: taskStore,
		log:       slog.Default().With("component", "server"),
		baseCtx:   baseCtx,
		cancel:    cancel,
	}

	taskStore.StartCleanupTicker(baseCtx, taskCleanupInterval)

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(requestID)
	chiRouter.Use(requestLogger(s.log))
	chiRouter.Use(middleware.Recoverer)

	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Get("/index", s.handleIndex)
		r.Get("/dates", s.handleDates)
		r.Get("/days/{date}", s.handleDay)
		r.Get("/conversations/{id}/dates", s.handleConversationDates)
		r.Get("/overview", s.handleOverview)
		r.Post("/overview/tasks", s.handleStartOverview)
		r.Get("/overview/tasks/{taskID}", s.handleOverviewTask)
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера и прерывает фоновые задачи
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Завершение работы HTTP-сервера")
	s.cancel()
	return s.HTTPServer.Shutdown(ctx)
}

type indexResponse struct {
	Origin         domain.Origin       `json:"origin"`
	AccountOwner   string              `json:"account_owner"`
	Users          []domain.IndexUser  `json:"users"`
	Groups         []domain.IndexGroup `json:"groups"`
	FallbackReason string              `json:"fallback_reason,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	res, err := s.archive.Index(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := indexResponse{
		Origin:       res.Origin,
		AccountOwner: services.DetectAccountOwner(res.Index),
		Users:        res.Index.Users,
		Groups:       res.Index.Groups,
	}
	if res.FallbackReason != nil {
		resp.FallbackReason = res.FallbackReason.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.archive.AvailableDates(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

// messageView - сообщение с цветом отправителя.
type messageView struct {
	domain.Message
	Color palette.Color `json:"color"`
}

type conversationView struct {
	domain.Conversation
	Messages []messageView `json:"messages"`
}

type dayResponse struct {
	Date          string                     `json:"date"`
	Origin        domain.Origin              `json:"origin"`
	Viewer        string                     `json:"viewer"`
	Stats         domain.DayStats            `json:"stats"`
	Conversations []conversationView         `json:"conversations"`
	OrphanedMedia []domain.OrphanedMediaItem `json:"orphaned_media"`
	PreviousDate  string                     `json:"previous_date,omitempty"`
	NextDate      string                     `json:"next_date,omitempty"`
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day, err := s.archive.Day(ctx, chi.URLParam(r, "date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	idx, err := s.archive.Index(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dates, err := s.archive.AvailableDates(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	viewer := services.DetectAccountOwner(idx.Index)
	resp := dayResponse{
		Date:          day.Date,
		Origin:        day.Origin,
		Viewer:        viewer,
		Stats:         day.Stats,
		OrphanedMedia: day.OrphanedMedia,
	}
	resp.PreviousDate, resp.NextDate = services.AdjacentDates(dates, day.Date)

	convs := day.Conversations
	if id := r.URL.Query().Get("conversation"); id != "" {
		conv, ok := day.Conversation(id)
		if !ok {
			http.Error(w, "Переписка не найдена", http.StatusNotFound)
			return
		}
		convs = []domain.Conversation{*conv}
		resp.OrphanedMedia = nil
	}

	resp.Conversations = make([]conversationView, 0, len(convs))
	for _, conv := range convs {
		resp.Conversations = append(resp.Conversations, colorize(conv, viewer))
	}
	writeJSON(w, http.StatusOK, resp)
}

func colorize(conv domain.Conversation, viewer string) conversationView {
	p := palette.New(viewer, conv.ID)
	view := conversationView{
		Conversation: conv,
		Messages:     make([]messageView, len(conv.Messages)),
	}
	for i, msg := range conv.Messages {
		view.Messages[i] = messageView{Message: msg, Color: p.For(msg.From)}
	}
	return view
}

func (s *Server) handleConversationDates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dates, err := s.archive.ConversationDates(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversation_id": id, "dates": dates})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.archive.Overview(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// handleStartOverview запускает построение сводки в фоне.
func (s *Server) handleStartOverview(w http.ResponseWriter, r *http.Request) {
	taskID, started := s.taskStore.Begin(uuid.NewString(), taskTTL)
	if !started {
		writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
		return
	}

	go func() {
		_ = s.taskStore.MarkProcessing(taskID)

		ov, err := s.archive.Overview(s.baseCtx)
		if err != nil {
			s.log.Error("Не удалось построить сводку", "task_id", taskID, "error", err)
		} else {
			s.log.Info("Сводка построена", "task_id", taskID, "days", ov.TotalDays)
		}
		if err := s.taskStore.Finish(taskID, ov, err); err != nil {
			s.log.Warn("Задача удалена до завершения", "task_id", taskID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleOverviewTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.Get(chi.URLParam(r, "taskID"))
	if errors.Is(err, ErrTaskNotFound) {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// writeError переводит ошибку сервиса в HTTP-ответ. Прерванный запрос ничего не отвечает.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, loader.ErrAborted), errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		s.log.DebugContext(r.Context(), "Запрос прерван клиентом", "path", r.URL.Path, "status", StatusClientClosedRequest)
		w.WriteHeader(StatusClientClosedRequest)
	case errors.Is(err, loader.ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.ErrorContext(r.Context(), "Ошибка обработки запроса", "path", r.URL.Path, "error", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Не удалось записать ответ", "error", err)
	}
}
