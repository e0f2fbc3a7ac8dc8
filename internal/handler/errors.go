package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

// serviceError 把领域错误映射为响应，未知错误按服务器内部错误处理
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
		h.errorResponse(w, r, msg)
	case errors.Is(err, domain.ErrNotFound):
		h.errorResponse(w, r, "记录不存在或已失效")
	case errors.Is(err, domain.ErrInvalidTransition):
		h.errorResponse(w, r, "当前状态下无法执行该操作")
	case errors.Is(err, domain.ErrCapacityExceeded):
		h.errorResponse(w, r, "名额已满，请尝试另一种角色")
	case errors.Is(err, domain.ErrAlreadyRegistered):
		h.errorResponse(w, r, "已经报名过该班次")
	case errors.Is(err, domain.ErrDuplicateAppeal):
		h.errorResponse(w, r, "已有待处理的解封申请")
	case errors.Is(err, domain.ErrWorkerExists):
		h.errorResponse(w, r, "账号或邮箱已存在")
	case errors.Is(err, domain.ErrWorkerSuspended):
		h.errorResponse(w, r, "账号已被停用")
	case errors.Is(err, domain.ErrWorkerNotBlocked):
		h.errorResponse(w, r, "账号未被停用")
	case errors.Is(err, domain.ErrProfileIncomplete):
		h.errorResponse(w, r, "请先完善个人资料")
	case errors.Is(err, domain.ErrShiftNotActive):
		h.errorResponse(w, r, "班次已结束")
	case errors.Is(err, domain.ErrShiftNotCompleted):
		h.errorResponse(w, r, "班次尚未结束")
	default:
		h.internalServerError(w, r, err)
	}
}

// checkCity 在严格模式下拒绝城市表中没有的城市
func (h *Handler) checkCity(w http.ResponseWriter, r *http.Request, city string) bool {
	if h.config.Roster.StrictCities && !h.resolver.Known(city) {
		h.errorResponse(w, r, "不支持的城市")
		return false
	}
	return true
}
