package handler

import (
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		City                string `json:"city" validate:"required"`
		Date                string `json:"date" validate:"required"`
		Address             string `json:"address" validate:"required"`
		Payment             string `json:"payment"`
		Conditions          string `json:"conditions"`
		MainSlots           int32  `json:"mainSlots" validate:"gte=1"`
		ReserveSlots        int32  `json:"reserveSlots" validate:"gte=0"`
		EveningReminderTime string `json:"eveningReminderTime"`
		MorningReminderTime string `json:"morningReminderTime"`
	}

	if !h.readRequest(w, r, &req) {
		return
	}
	if !h.checkCity(w, r, req.City) {
		return
	}

	shift := &domain.Shift{
		City:                req.City,
		Date:                req.Date,
		Address:             req.Address,
		Payment:             req.Payment,
		Conditions:          req.Conditions,
		MainSlots:           req.MainSlots,
		ReserveSlots:        req.ReserveSlots,
		EveningReminderTime: req.EveningReminderTime,
		MorningReminderTime: req.MorningReminderTime,
	}
	if err := h.service.CreateShift(r.Context(), shift); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建班次成功", shift)
}

// GetShiftStatus 返回城市当前的班次以及按角色分组的名单
func (h *Handler) GetShiftStatus(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		h.errorResponse(w, r, "缺少城市参数")
		return
	}

	status, err := h.service.ShiftStatus(r.Context(), city)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.successResponse(w, r, "该城市没有进行中的班次", nil)
			return
		}
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次状态成功", status)
}

func (h *Handler) GetShiftRoster(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	roster, err := h.service.ShiftRoster(r.Context(), shift.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次名单成功", roster)
}

func (h *Handler) PublishShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	report, err := h.service.PublishShift(r.Context(), shift.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次已发布", report)
}

func (h *Handler) SendManualReminder(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	report, err := h.service.SendManualReminder(r.Context(), shift.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "提醒已发送", report)
}

func (h *Handler) FinalizeShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	report, err := h.service.FinalizeShift(r.Context(), shift.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次已结束", report)
}

func (h *Handler) GetShiftSummary(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	summary, err := h.service.Summary(r.Context(), shift.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次汇总成功", summary)
}
