package handler

import (
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/utils"
)

func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取城市列表成功", h.resolver.Cities())
}

func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle string `json:"handle" validate:"required"`
		Email  string `json:"email" validate:"required,email"`
	}

	if !h.readRequest(w, r, &req) {
		return
	}

	worker := &domain.Worker{
		Handle:   req.Handle,
		Email:    req.Email,
		IsActive: true,
	}
	if err := h.store.CreateWorker(r.Context(), worker); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建工人账号成功", worker)
}

type workerView struct {
	*domain.Worker
	Profile *domain.WorkerProfile `json:"profile"`
}

func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker := r.Context().Value(WorkerCtx).(*domain.Worker)

	profile, err := h.store.GetProfile(r.Context(), worker.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取工人信息成功", workerView{Worker: worker, Profile: profile})
}

// SubmitProfile 对应填写完成的注册表单，统计字段不受影响
func (h *Handler) SubmitProfile(w http.ResponseWriter, r *http.Request) {
	worker := r.Context().Value(WorkerCtx).(*domain.Worker)

	var req struct {
		City     string `json:"city" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Phone    string `json:"phone" validate:"required"`
		Age      int32  `json:"age" validate:"required"`
	}

	if !h.readRequest(w, r, &req) {
		return
	}

	profile := &domain.WorkerProfile{
		WorkerID: worker.ID,
		City:     req.City,
		FullName: req.FullName,
		Phone:    req.Phone,
		Age:      req.Age,
	}
	if err := utils.ValidateProfile(profile); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !h.checkCity(w, r, profile.City) {
		return
	}

	if err := h.store.UpsertProfile(r.Context(), profile); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "资料已保存", profile)
}

func (h *Handler) FileUnblockRequest(w http.ResponseWriter, r *http.Request) {
	worker := r.Context().Value(WorkerCtx).(*domain.Worker)

	var req struct {
		Message string `json:"message" validate:"required"`
	}

	if !h.readRequest(w, r, &req) {
		return
	}

	res, err := h.service.FileUnblockRequest(r.Context(), worker.ID, req.Message)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if res.Duplicate {
		h.successResponse(w, r, "已有待处理的解封申请", res)
		return
	}

	h.successResponse(w, r, "解封申请已提交", res)
}

type activeShiftView struct {
	Shift *domain.Shift            `json:"shift"`
	Slots *domain.SlotAvailability `json:"slots"`
}

func (h *Handler) GetActiveShiftForWorker(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		h.errorResponse(w, r, "缺少城市参数")
		return
	}

	shift, err := h.store.GetActiveShiftByCity(r.Context(), city)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.successResponse(w, r, "该城市暂时没有班次", nil)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), shift.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次成功", activeShiftView{Shift: shift, Slots: slots})
}

func (h *Handler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	slots, err := h.service.AvailableSlots(r.Context(), shift.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取剩余名额成功", slots)
}

func (h *Handler) RegisterForShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	var req struct {
		WorkerID int64  `json:"workerID" validate:"required"`
		Role     string `json:"role" validate:"required,oneof=main reserve"`
	}

	if !h.readRequest(w, r, &req) {
		return
	}

	m, err := h.service.Register(r.Context(), shift.ID, req.WorkerID, domain.MemberRole(req.Role))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "报名成功", m)
}

type memberRequest struct {
	WorkerID int64 `json:"workerID" validate:"required"`
}

func (h *Handler) ConfirmShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	var req memberRequest
	if !h.readRequest(w, r, &req) {
		return
	}

	h.confirm(w, r, shift.ID, req.WorkerID)
}

func (h *Handler) MorningConfirmShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	var req memberRequest
	if !h.readRequest(w, r, &req) {
		return
	}

	h.morningConfirm(w, r, shift.ID, req.WorkerID)
}

func (h *Handler) DeclineShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	var req memberRequest
	if !h.readRequest(w, r, &req) {
		return
	}

	h.decline(w, r, shift.ID, req.WorkerID)
}

func (h *Handler) SubmitShiftResult(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	var req struct {
		WorkerID int64  `json:"workerID" validate:"required"`
		Worked   *bool  `json:"worked" validate:"required"`
		Reason   string `json:"reason"`
	}

	if !h.readRequest(w, r, &req) {
		return
	}

	h.submitResult(w, r, shift.ID, req.WorkerID, *req.Worked, req.Reason)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request, shiftID, workerID int64) {
	res, err := h.service.Confirm(r.Context(), shiftID, workerID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if res.AlreadyConfirmed {
		h.successResponse(w, r, "已经确认过了", res)
		return
	}
	h.successResponse(w, r, "确认成功", res)
}

func (h *Handler) morningConfirm(w http.ResponseWriter, r *http.Request, shiftID, workerID int64) {
	res, err := h.service.MorningConfirm(r.Context(), shiftID, workerID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.successResponse(w, r, "确认成功", res)
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request, shiftID, workerID int64) bool {
	res, err := h.service.Decline(r.Context(), shiftID, workerID)
	if err != nil {
		h.serviceError(w, r, err)
		return false
	}
	h.successResponse(w, r, "已取消报名", res)
	return true
}

func (h *Handler) submitResult(w http.ResponseWriter, r *http.Request, shiftID, workerID int64, worked bool, reason string) {
	result, err := h.service.SubmitResult(r.Context(), shiftID, workerID, worked, reason)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.successResponse(w, r, "结果已记录", result)
}
