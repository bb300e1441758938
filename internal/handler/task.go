package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/service"
)

// TaskHandler handles HTTP requests for task operations.
// Every route requires authentication; the caller's ID comes from the
// request context and scopes all reads and writes.
type TaskHandler struct {
	svc    *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	callerID := auth.MustAuthFromContext(r.Context()).UserID

	input := service.CreateTaskInput{
		OwnerID:     callerID,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TaskStatus(req.Status),
		Priority:    model.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
	}

	task, err := h.svc.CreateTask(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("task_created",
		"task_id", task.ID,
		"owner_id", task.OwnerID,
		"priority", task.Priority,
	)

	writeJSON(w, http.StatusCreated, dto.ToTaskResponse(task))
}

// Get handles GET /api/v1/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Task ID is required")
		return
	}

	callerID := auth.MustAuthFromContext(r.Context()).UserID

	task, err := h.svc.GetTask(r.Context(), callerID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// List handles GET /api/v1/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	callerID := auth.MustAuthFromContext(r.Context()).UserID

	input := service.ListTasksInput{
		OwnerID:  callerID,
		Status:   model.TaskStatus(query.Get("status")),
		Priority: model.TaskPriority(query.Get("priority")),
		Search:   query.Get("search"),
	}

	if p := query.Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			input.Page = parsed
		}
	}
	if s := query.Get("page_size"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			input.PageSize = parsed
		}
	}

	page, err := h.svc.ListTasks(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskListResponse(page))
}

// Update handles PATCH /api/v1/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Task ID is required")
		return
	}

	var req dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	callerID := auth.MustAuthFromContext(r.Context()).UserID

	input := service.UpdateTaskInput{
		ID:          id,
		CallerID:    callerID,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := model.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.DueDate.Set {
		if req.DueDate.Value == nil {
			input.ClearDueDate = true
		} else {
			input.DueDate = req.DueDate.Value
		}
	}

	task, err := h.svc.UpdateTask(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("task_updated",
		"task_id", task.ID,
		"owner_id", task.OwnerID,
		"status", task.Status,
	)

	writeJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// Delete handles DELETE /api/v1/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Task ID is required")
		return
	}

	callerID := auth.MustAuthFromContext(r.Context()).UserID

	if err := h.svc.DeleteTask(r.Context(), callerID, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("task_deleted", "task_id", id, "owner_id", callerID)

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/tasks/stats/summary.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	callerID := auth.MustAuthFromContext(r.Context()).UserID

	stats, err := h.svc.GetStats(r.Context(), callerID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskStatsResponse(stats))
}

// handleServiceError maps task service errors to HTTP responses.
func (h *TaskHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found")
	case errors.Is(err, service.ErrInvalidTitle):
		writeError(w, http.StatusBadRequest, "INVALID_TITLE", "Title must be 1-255 characters")
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "Status must be todo, in_progress, or completed")
	case errors.Is(err, service.ErrInvalidPriority):
		writeError(w, http.StatusBadRequest, "INVALID_PRIORITY", "Priority must be low, medium, or high")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
