// Package server реализует HTTP-сервер конвертации: загрузка архива,
// асинхронные задачи и выдача готового PDF-документа.
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"whatsapp-pdf-exporter/internal/cache"
	"whatsapp-pdf-exporter/internal/pkg/config"
	"whatsapp-pdf-exporter/internal/server/usecase"
)

// Срок хранения записи о задаче.
const taskTTL = 24 * time.Hour

// ChatConverter определяет интерфейс сценария, выполняющего конвертацию.
type ChatConverter interface {
	ConvertChat(ctx context.Context, archive []byte, opts usecase.ConvertOptions) ([]byte, error)
	CacheKey(archive []byte, opts usecase.ConvertOptions) string
	LookupCached(key string) ([]byte, bool)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	cacheStore *cache.CacheStore
	converter  ChatConverter
}

// New создает новый экземпляр Server
func New(cfg *config.Config, converter ChatConverter, taskStore *TaskStore, cacheStore *cache.CacheStore) (*Server, error) {
	s := &Server{
		cfg:        cfg,
		taskStore:  taskStore,
		cacheStore: cacheStore,
		converter:  converter,
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
		r.Post("/convert-by-hash", s.handleConvertByHash)
		r.Get("/tasks/{taskID}", s.handleTaskStatus)
		r.Get("/tasks/{taskID}/result", s.handleTaskResult)
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Тикеры очистки просроченных задач и записей кэша живут до остановки
	// процесса.
	ctx := context.Background()
	s.taskStore.StartCleanupTicker(ctx, 1*time.Hour)
	s.cacheStore.StartCleanupTicker(ctx, 1*time.Hour)

	return s, nil
}

// handleConvert принимает архив экспорта и запускает задачу конвертации.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	maxUpload := int64(s.cfg.Server.MaxUploadSizeMB) << 20
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Не удалось получить файл из формы", http.StatusBadRequest)
		return
	}
	defer file.Close()

	archive, err := io.ReadAll(io.LimitReader(file, maxUpload))
	if err != nil {
		http.Error(w, "Не удалось прочитать загруженный файл", http.StatusInternalServerError)
		return
	}

	opts, err := s.parseConvertOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	taskID := uuid.NewString()
	s.taskStore.CreateTask(taskID, taskTTL)

	go s.runConversion(taskID, archive, opts)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id":   taskID,
		"cache_key": s.converter.CacheKey(archive, opts),
	})
}

// runConversion выполняет конвертацию в фоне с таймаутом из конфигурации.
func (s *Server) runConversion(taskID string, archive []byte, opts usecase.ConvertOptions) {
	s.taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

	ctx := context.Background()
	if s.cfg.Processing.TaskTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Processing.TaskTimeoutSeconds)*time.Second)
		defer cancel()
	}

	result, err := s.converter.ConvertChat(ctx, archive, opts)
	if err != nil {
		slog.Error("Конвертация завершилась ошибкой", "task_id", taskID, "error", err)
		s.taskStore.UpdateTaskError(taskID, err.Error())
		return
	}

	s.taskStore.UpdateTaskResult(taskID, result, s.converter.CacheKey(archive, opts))
}

// handleConvertByHash создает задачу из кэшированного результата по ключу,
// выданному предыдущим запросом конвертации.
func (s *Server) handleConvertByHash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Не удалось декодировать тело запроса", http.StatusBadRequest)
		return
	}
	if req.Hash == "" {
		http.Error(w, "Требуется хеш", http.StatusBadRequest)
		return
	}

	taskID := uuid.NewString()
	s.taskStore.CreateTask(taskID, taskTTL)

	if data, found := s.converter.LookupCached(req.Hash); found {
		s.taskStore.UpdateTaskResult(taskID, data, req.Hash)
		slog.Info("Попадание в кэш для хеша", "hash", req.Hash, "task_id", taskID)
	} else {
		s.taskStore.UpdateTaskError(taskID, "Результат не найден в кэше для данного хеша")
		slog.Info("Промах кэша для хеша", "hash", req.Hash, "task_id", taskID)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// handleTaskStatus возвращает статус задачи.
func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task_id":       task.ID,
		"status":        task.Status,
		"cache_key":     task.CacheKey,
		"error_message": task.ErrorMessage,
	})
}

// handleTaskResult отдает готовый PDF-документ завершенной задачи.
func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}
	if task.Status != TaskStatusCompleted {
		http.Error(w, "Задача не завершена", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="chat.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(task.Result)
}

// parseConvertOptions собирает параметры конвертации из полей формы.
func (s *Server) parseConvertOptions(r *http.Request) (usecase.ConvertOptions, error) {
	opts := usecase.ConvertOptions{
		MainUser: r.FormValue("main_user"),
	}

	if v := r.FormValue("seal_contacts"); v != "" {
		seal, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errBadField("seal_contacts")
		}
		opts.SealContacts = seal
	}
	if v := r.FormValue("include_media"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errBadField("include_media")
		}
		opts.IncludeMedia = include
	}

	if v := r.FormValue("from"); v != "" {
		from, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return opts, errBadField("from")
		}
		opts.Filter.From = &from
	}
	if v := r.FormValue("to"); v != "" {
		to, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return opts, errBadField("to")
		}
		// Верхняя граница включает весь указанный день.
		to = to.Add(24*time.Hour - time.Nanosecond)
		opts.Filter.To = &to
	}
	if v := r.FormValue("keywords"); v != "" {
		opts.Filter.Keywords = strings.Split(v, ",")
	}

	theme, err := s.parseThemeUpload(r)
	if err != nil {
		return opts, err
	}
	opts.Theme = theme
	return opts, nil
}

// parseThemeUpload читает необязательный файл темы из формы.
func (s *Server) parseThemeUpload(r *http.Request) (*config.ThemeConfig, error) {
	file, _, err := r.FormFile("theme")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, errBadField("theme")
	}
	defer file.Close()

	// LoadTheme разрешает относительные пути фоновых изображений от
	// каталога файла темы, поэтому загрузка идет через временный файл.
	tmp, err := os.CreateTemp("", "theme_*.yml")
	if err != nil {
		return nil, errBadField("theme")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		return nil, errBadField("theme")
	}
	if err := tmp.Close(); err != nil {
		return nil, errBadField("theme")
	}

	theme, err := config.LoadTheme(tmp.Name())
	if err != nil {
		return nil, err
	}
	return theme, nil
}

type fieldError struct{ field string }

func (e fieldError) Error() string {
	return "Недопустимое значение поля " + e.field
}

func errBadField(field string) error {
	return fieldError{field: field}
}

// writeJSON сериализует тело ответа с заголовком Content-Type.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Завершение работы HTTP-сервера")
	return s.HTTPServer.Shutdown(ctx)
}
