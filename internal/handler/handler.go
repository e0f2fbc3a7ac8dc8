package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/citytime"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/roster"
)

type AdminStore interface {
	GetAdminByID(ctx context.Context, id int64) (*domain.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error)
}

// ActionTokens 解析通知中一次性链接携带的令牌
type ActionTokens interface {
	Resolve(ctx context.Context, token string) (*domain.ActionGrant, error)
	Revoke(ctx context.Context, token string) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	translator ut.Translator
	service    *roster.Service
	store      roster.Store
	admins     AdminStore
	tokens     ActionTokens
	resolver   *citytime.Resolver

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, svc *roster.Service, admins AdminStore, tokens ActionTokens, resolver *citytime.Resolver) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,
		service:    svc,
		store:      svc.Store(),
		admins:     admins,
		tokens:     tokens,
		resolver:   resolver,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 通知邮件中的操作链接，令牌本身就是凭证
	h.Mux.Route("/actions/{token}", func(r chi.Router) {
		r.Use(h.actionGrant)
		r.Get("/", h.ShowAction)
		r.Post("/", h.ExecuteAction)
	})

	// 消息前端（bot / 网页）使用的接口
	h.Mux.Route("/gateway", func(r chi.Router) {
		r.Use(h.gatewayKey)
		r.Get("/cities", h.GetCities)
		r.Route("/workers", func(r chi.Router) {
			r.Post("/", h.CreateWorker)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.workerInfo)
				r.Get("/", h.GetWorker)
				r.Put("/", h.SubmitProfile)
				r.Post("/unblock-requests", h.FileUnblockRequest)
			})
		})
		r.Get("/shifts/active", h.GetActiveShiftForWorker)
		r.Route("/shifts/{id}", func(r chi.Router) {
			r.Use(h.shiftInfo)
			r.Get("/slots", h.GetAvailableSlots)
			r.Post("/register", h.RegisterForShift)
			r.Post("/confirm", h.ConfirmShift)
			r.Post("/decline", h.DeclineShift)
			r.Post("/morning-confirm", h.MorningConfirmShift)
			r.Post("/result", h.SubmitShiftResult)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/my-info", h.GetMyInfo)

		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.CreateShift)
			r.Get("/active", h.GetShiftStatus)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftInfo)
				r.Get("/", h.GetShiftRoster)
				r.Post("/publish", h.PublishShift)
				r.Post("/remind", h.SendManualReminder)
				r.Post("/finalize", h.FinalizeShift)
				r.Get("/summary", h.GetShiftSummary)
			})
		})

		r.Route("/unblock-requests", func(r chi.Router) {
			r.Get("/", h.GetPendingUnblockRequests)
			r.Post("/{id}/approve", h.ApproveUnblockRequest)
			r.Post("/{id}/deny", h.DenyUnblockRequest)
		})

		r.Post("/workers/{id}/unblock", h.UnblockWorker)
	})
}
