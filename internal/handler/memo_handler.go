package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"memoboard/internal/domain"
	"memoboard/internal/service"
	"memoboard/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type MemoHandler struct {
	service  *service.MemoService
	validate *validator.Validate
}

func NewMemoHandler(service *service.MemoService) *MemoHandler {
	return &MemoHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *MemoHandler) List(w http.ResponseWriter, r *http.Request) {
	memos, err := h.service.ListAll(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to fetch memos")
		return
	}

	response.Success(w, memos)
}

func (h *MemoHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	memos, err := h.service.ListByDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			response.BadRequest(w, "Invalid date, expected YYYY-MM-DD")
			return
		}
		response.InternalError(w, "Failed to fetch memos")
		return
	}

	response.Success(w, memos)
}

func (h *MemoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	year, err := strconv.Atoi(vars["year"])
	if err != nil || year < 1 {
		response.BadRequest(w, "Invalid year")
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil {
		response.BadRequest(w, "Invalid month")
		return
	}

	stats, err := h.service.MonthlyStats(r.Context(), year, month)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMonth) {
			response.BadRequest(w, "Invalid month")
			return
		}
		response.InternalError(w, "Failed to fetch memo stats")
		return
	}

	response.Success(w, stats)
}

func (h *MemoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	memo, err := h.service.Create(r.Context(), &req)
	if err != nil {
		response.InternalError(w, "Failed to create memo")
		return
	}

	response.Success(w, memo)
}

func (h *MemoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		response.BadRequest(w, "Memo ID is required")
		return
	}

	var req domain.UpdateMemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	memo, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrMemoNotFound) {
			response.NotFound(w, "Memo not found")
			return
		}
		response.InternalError(w, "Failed to update memo")
		return
	}

	response.Success(w, memo)
}

func (h *MemoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		response.BadRequest(w, "Memo ID is required")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrMemoNotFound) {
			response.NotFound(w, "Memo not found")
			return
		}
		response.InternalError(w, "Failed to delete memo")
		return
	}

	response.Success(w, map[string]string{"message": "Memo deleted successfully"})
}
