package handler

import (
	"log/slog"
	"net/http"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

type actionView struct {
	Kind        domain.ActionKind `json:"kind"`
	Role        domain.MemberRole `json:"role,omitempty"`
	Shift       *domain.Shift     `json:"shift"`
	NeedsReason bool              `json:"needsReason"`
}

// ShowAction 只返回链接对应的操作和班次，不修改任何状态。
// 邮件客户端和链接扫描器会自动访问 GET 链接。
func (h *Handler) ShowAction(w http.ResponseWriter, r *http.Request) {
	grant := r.Context().Value(ActionGrantCtx).(*domain.ActionGrant)

	shift, err := h.store.GetShift(r.Context(), grant.ShiftID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	view := actionView{
		Kind:        grant.Kind,
		Role:        grant.Role,
		Shift:       shift,
		NeedsReason: grant.Kind == domain.ActionReportNoShow,
	}
	h.successResponse(w, r, "请确认操作", view)
}

// ExecuteAction 执行通知链接对应的操作，未到岗需要在请求体中填写原因
func (h *Handler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	grant := r.Context().Value(ActionGrantCtx).(*domain.ActionGrant)

	switch grant.Kind {
	case domain.ActionConfirm:
		h.confirm(w, r, grant.ShiftID, grant.WorkerID)
	case domain.ActionMorningConfirm:
		h.morningConfirm(w, r, grant.ShiftID, grant.WorkerID)
	case domain.ActionDecline:
		if h.decline(w, r, grant.ShiftID, grant.WorkerID) {
			h.revokeAction(r)
		}
	case domain.ActionRegister:
		m, err := h.service.Register(r.Context(), grant.ShiftID, grant.WorkerID, grant.Role)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		h.successResponse(w, r, "报名成功", m)
	case domain.ActionReportWorked:
		h.submitResult(w, r, grant.ShiftID, grant.WorkerID, true, "")
	case domain.ActionReportNoShow:
		var req struct {
			Reason string `json:"reason" validate:"required"`
		}

		if !h.readRequest(w, r, &req) {
			return
		}

		h.submitResult(w, r, grant.ShiftID, grant.WorkerID, false, req.Reason)
	default:
		h.errorResponse(w, r, "未知的操作")
	}
}

// revokeAction 拒绝之后链接不再可用，失败只记录日志
func (h *Handler) revokeAction(r *http.Request) {
	token := r.Context().Value(ActionTokenCtx).(string)
	if err := h.tokens.Revoke(r.Context(), token); err != nil {
		slog.Warn("无法删除操作令牌", "error", err)
	}
}
