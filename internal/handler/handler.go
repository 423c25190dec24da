// Package handler exposes the seating chart over a JSON API: read-only
// projections for rendering plus CRUD for students, furniture, logs, and
// settings.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/seatlog/seatlog/internal/export"
	"github.com/seatlog/seatlog/internal/model"
	"github.com/seatlog/seatlog/internal/repo"
	"github.com/seatlog/seatlog/internal/settings"
	"github.com/seatlog/seatlog/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	classroom *repo.Classroom
	settings  *settings.Repository
	validate  *validator.Validate
}

// New creates a new Handler.
func New(s *store.Store, c *repo.Classroom, sr *settings.Repository) *Handler {
	return &Handler{
		store:     s,
		classroom: c,
		settings:  sr,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/students", h.handleListStudents)
	r.Post("/students", h.handleCreateStudent)
	r.Put("/students/{id}", h.handleUpdateStudent)
	r.Delete("/students/{id}", h.handleDeleteStudent)

	r.Get("/students/{id}/behavior", h.handleListBehaviorLogs)
	r.Post("/students/{id}/behavior", h.handleCreateBehaviorLog)
	r.Get("/students/{id}/homework", h.handleListHomeworkLogs)
	r.Post("/students/{id}/homework", h.handleCreateHomeworkLog)
	r.Get("/students/{id}/quiz", h.handleListQuizLogs)
	r.Post("/students/{id}/quiz", h.handleCreateQuizLog)

	r.Get("/furniture", h.handleListFurniture)
	r.Post("/furniture", h.handleCreateFurniture)
	r.Put("/furniture/{id}", h.handleUpdateFurniture)
	r.Delete("/furniture/{id}", h.handleDeleteFurniture)

	r.Get("/settings", h.handleGetSettings)
	r.Put("/settings", h.handleUpdateSettings)

	r.Post("/lock", h.handleSetLock)
	r.Post("/unlock", h.handleUnlock)
	r.Delete("/lock", h.handleRemoveLock)

	r.Get("/export", h.handleExport)
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	mode := model.Mode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = model.ModeBehavior
	}
	views, err := h.classroom.Students(mode)
	if err != nil {
		h.serverError(w, "list students", err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

type studentRequest struct {
	Name         string            `json:"name" validate:"required"`
	StudentID    string            `json:"student_id"`
	X            float64           `json:"x"`
	Y            float64           `json:"y"`
	Rotation     float64           `json:"rotation"`
	Width        float64           `json:"width" validate:"gte=0"`
	Height       float64           `json:"height" validate:"gte=0"`
	IsGroup      bool              `json:"is_group"`
	ChildIDs     []int64           `json:"child_ids"`
	Notes        string            `json:"notes"`
	DateOfBirth  *time.Time        `json:"date_of_birth"`
	ContactInfo  string            `json:"contact_info"`
	CustomFields map[string]string `json:"custom_fields"`
}

func (req studentRequest) toStudent(id int64) model.Student {
	s := model.Student{
		ID:           id,
		Name:         req.Name,
		StudentID:    req.StudentID,
		X:            req.X,
		Y:            req.Y,
		Rotation:     req.Rotation,
		Width:        req.Width,
		Height:       req.Height,
		IsGroup:      req.IsGroup,
		Notes:        req.Notes,
		DateOfBirth:  req.DateOfBirth,
		ContactInfo:  req.ContactInfo,
		CustomFields: req.CustomFields,
	}
	// Member ids are meaningful for groups only.
	if s.IsGroup {
		s.ChildIDs = req.ChildIDs
	}
	return s
}

func (h *Handler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.store.InsertStudent(req.toStudent(0))
	if err != nil {
		h.serverError(w, "create student", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req studentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.store.UpdateStudent(req.toStudent(id)); err != nil {
		if errors.Is(err, store.ErrStudentNotFound) {
			http.Error(w, "student not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "update student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteStudent(id); err != nil {
		h.serverError(w, "delete student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type behaviorLogRequest struct {
	Behavior  string     `json:"behavior" validate:"required"`
	Comment   string     `json:"comment"`
	Timestamp *time.Time `json:"timestamp"`
}

func (h *Handler) handleCreateBehaviorLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req behaviorLogRequest
	if !h.decode(w, r, &req) {
		return
	}
	logID, err := h.store.InsertBehaviorLog(model.BehaviorLog{
		StudentID: id,
		Timestamp: timestampOrNow(req.Timestamp),
		Behavior:  req.Behavior,
		Comment:   req.Comment,
	})
	if err != nil {
		if errors.Is(err, store.ErrStudentNotFound) {
			http.Error(w, "student not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "create behavior log", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": logID})
}

func (h *Handler) handleListBehaviorLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	logs, err := h.store.GetBehaviorLogsForStudent(id)
	if err != nil {
		h.serverError(w, "list behavior logs", err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

type homeworkLogRequest struct {
	HomeworkType string     `json:"homework_type" validate:"required"`
	Status       string     `json:"status" validate:"required"`
	Comment      string     `json:"comment"`
	Timestamp    *time.Time `json:"timestamp"`
}

func (h *Handler) handleCreateHomeworkLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req homeworkLogRequest
	if !h.decode(w, r, &req) {
		return
	}
	logID, err := h.store.InsertHomeworkLog(model.HomeworkLog{
		StudentID:    id,
		Timestamp:    timestampOrNow(req.Timestamp),
		HomeworkType: req.HomeworkType,
		Status:       req.Status,
		Comment:      req.Comment,
	})
	if err != nil {
		if errors.Is(err, store.ErrStudentNotFound) {
			http.Error(w, "student not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "create homework log", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": logID})
}

func (h *Handler) handleListHomeworkLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	logs, err := h.store.GetHomeworkLogsForStudent(id)
	if err != nil {
		h.serverError(w, "list homework logs", err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

type quizLogRequest struct {
	QuizName  string     `json:"quiz_name" validate:"required"`
	Score     string     `json:"score" validate:"required"`
	Comment   string     `json:"comment"`
	Timestamp *time.Time `json:"timestamp"`
}

func (h *Handler) handleCreateQuizLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req quizLogRequest
	if !h.decode(w, r, &req) {
		return
	}
	logID, err := h.store.InsertQuizLog(model.QuizLog{
		StudentID: id,
		Timestamp: timestampOrNow(req.Timestamp),
		QuizName:  req.QuizName,
		Score:     req.Score,
		Comment:   req.Comment,
	})
	if err != nil {
		if errors.Is(err, store.ErrStudentNotFound) {
			http.Error(w, "student not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "create quiz log", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": logID})
}

func (h *Handler) handleListQuizLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	logs, err := h.store.GetQuizLogsForStudent(id)
	if err != nil {
		h.serverError(w, "list quiz logs", err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

type furnitureRequest struct {
	Name             string  `json:"name"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	Rotation         float64 `json:"rotation"`
	Width            float64 `json:"width" validate:"gte=0"`
	Height           float64 `json:"height" validate:"gte=0"`
	Type             string  `json:"type" validate:"required"`
	Color            string  `json:"color"`
	IsBehindStudents bool    `json:"is_behind_students"`
}

func (req furnitureRequest) toFurnitureItem(id int64) model.FurnitureItem {
	return model.FurnitureItem{
		ID:               id,
		Name:             req.Name,
		X:                req.X,
		Y:                req.Y,
		Rotation:         req.Rotation,
		Width:            req.Width,
		Height:           req.Height,
		Type:             req.Type,
		Color:            req.Color,
		IsBehindStudents: req.IsBehindStudents,
	}
}

func (h *Handler) handleListFurniture(w http.ResponseWriter, r *http.Request) {
	items, err := h.classroom.Furniture()
	if err != nil {
		h.serverError(w, "list furniture", err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) handleCreateFurniture(w http.ResponseWriter, r *http.Request) {
	var req furnitureRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.store.InsertFurnitureItem(req.toFurnitureItem(0))
	if err != nil {
		h.serverError(w, "create furniture", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) handleUpdateFurniture(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req furnitureRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.store.UpdateFurnitureItem(req.toFurnitureItem(id)); err != nil {
		h.serverError(w, "update furniture", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteFurniture(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteFurnitureItem(id); err != nil {
		h.serverError(w, "delete furniture", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cs, err := h.settings.Get()
	if err != nil {
		h.serverError(w, "get settings", err)
		return
	}
	// Never serve the password hash.
	cs.Security.AppPasswordHash = ""
	respondJSON(w, http.StatusOK, cs)
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var cs model.ClassroomSettings
	if err := json.NewDecoder(r.Body).Decode(&cs); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.settings.Update(cs); err != nil {
		h.serverError(w, "update settings", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type passwordRequest struct {
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleSetLock(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.settings.SetAppPassword(req.Password); err != nil {
		h.serverError(w, "set app lock", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !h.decode(w, r, &req) {
		return
	}
	ok, err := h.settings.CheckAppPassword(req.Password)
	if err != nil {
		h.serverError(w, "check app lock", err)
		return
	}
	if !ok {
		http.Error(w, "wrong password", http.StatusUnauthorized)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveLock(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.RemoveAppPassword(); err != nil {
		h.serverError(w, "remove app lock", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	cs, err := h.settings.Get()
	if err != nil {
		h.serverError(w, "get settings", err)
		return
	}
	opts := export.OptionsFromSettings(cs)
	if f := r.URL.Query().Get("format"); f != "" {
		opts.Format = f
	}

	switch opts.Format {
	case "JSON", "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/csv")
	}
	if err := export.Logs(w, h.store, opts); err != nil {
		slog.Error("export failed", "error", err)
	}
}

// decode reads a JSON body into dst and validates it, writing the
// appropriate 4xx response itself. Returns false when the request was
// rejected.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return false
	}
	return true
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	slog.Error(op+" failed", "error", err)
	http.Error(w, "could not save/load data", http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func timestampOrNow(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return time.Now()
}
