package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

func (h *Handler) GetPendingUnblockRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.PendingUnblockRequests(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取解封申请成功", requests)
}

func (h *Handler) ApproveUnblockRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveUnblockRequest(w, r, domain.UnblockApproved)
}

func (h *Handler) DenyUnblockRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveUnblockRequest(w, r, domain.UnblockDenied)
}

func (h *Handler) resolveUnblockRequest(w http.ResponseWriter, r *http.Request, status domain.UnblockStatus) {
	id, ok := h.urlID(r, "id")
	if !ok {
		h.errorResponse(w, r, "申请ID无效")
		return
	}

	var (
		req *domain.UnblockRequest
		err error
	)
	if status == domain.UnblockApproved {
		req, err = h.service.ApproveUnblockRequest(r.Context(), id)
	} else {
		req, err = h.service.DenyUnblockRequest(r.Context(), id)
	}
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "解封申请已处理", req)
}

func (h *Handler) UnblockWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(r, "id")
	if !ok {
		h.errorResponse(w, r, "工人ID无效")
		return
	}

	if err := h.service.Unblock(r.Context(), id); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "工人已解封", nil)
}
