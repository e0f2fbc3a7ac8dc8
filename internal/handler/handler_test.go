package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/citytime"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/handler"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/roster"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/roster/rostertest"
)

const apiKey = "gateway-key"

type fakeAdmins struct {
	admins []*domain.Admin
}

func (f *fakeAdmins) GetAdminByID(_ context.Context, id int64) (*domain.Admin, error) {
	for _, a := range f.admins {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAdmins) GetAdminByUsername(_ context.Context, username string) (*domain.Admin, error) {
	for _, a := range f.admins {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeTokens struct {
	grants  map[string]domain.ActionGrant
	revoked []string
}

func (f *fakeTokens) Resolve(_ context.Context, token string) (*domain.ActionGrant, error) {
	g, ok := f.grants[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (f *fakeTokens) Revoke(_ context.Context, token string) error {
	delete(f.grants, token)
	f.revoked = append(f.revoked, token)
	return nil
}

type env struct {
	h      *handler.Handler
	svc    *roster.Service
	store  *rostertest.Store
	tokens *fakeTokens
	cookie *http.Cookie
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.Gateway.APIKey = apiKey
	cfg.Roster.StrictCities = true

	resolver, err := citytime.New("", "")
	require.NoError(t, err)

	store := rostertest.NewStore()
	clock := rostertest.NewClock(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := roster.NewService(store, rostertest.NewNotifier(), clock, logger, roster.DefaultOptions())

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	admins := &fakeAdmins{admins: []*domain.Admin{
		{ID: 1, Username: "admin", PasswordHash: string(hash), FullName: "Администратор", Email: "admin@example.com"},
	}}
	tokens := &fakeTokens{grants: map[string]domain.ActionGrant{}}

	h, err := handler.NewHandler(cfg, svc, admins, tokens, resolver)
	require.NoError(t, err)
	h.RegisterRoutes()

	return &env{h: h, svc: svc, store: store, tokens: tokens}
}

type result struct {
	code    int
	resp    handler.Response
	cookies []*http.Cookie
}

func (r result) data() map[string]any {
	m, _ := r.resp.Data.(map[string]any)
	return m
}

func (e *env) call(t *testing.T, method, path string, body any, header ...string) result {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	rec := httptest.NewRecorder()
	e.h.Mux.ServeHTTP(rec, req)

	var resp handler.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return result{code: rec.Code, resp: resp, cookies: rec.Result().Cookies()}
}

func (e *env) gateway(t *testing.T, method, path string, body any) result {
	t.Helper()
	return e.call(t, method, path, body, "X-API-Key", apiKey)
}

func (e *env) login(t *testing.T) {
	t.Helper()
	res := e.call(t, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "password"})
	require.True(t, res.resp.Success, res.resp.Message)
	require.NotEmpty(t, res.cookies)
	e.cookie = res.cookies[0]
}

func (e *env) shift(t *testing.T, mainSlots, reserveSlots int32) *domain.Shift {
	t.Helper()
	shift := &domain.Shift{
		City:                "Москва",
		Date:                "20.10.2026, 09:00",
		Address:             "ул. Складская, 1",
		MainSlots:           mainSlots,
		ReserveSlots:        reserveSlots,
		EveningReminderTime: "20:00",
		MorningReminderTime: "07:00",
	}
	require.NoError(t, e.svc.CreateShift(context.Background(), shift))
	return shift
}

func TestGatewayRequiresAPIKey(t *testing.T) {
	e := newEnv(t)

	res := e.call(t, http.MethodGet, "/gateway/cities", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.False(t, res.resp.Success)

	res = e.call(t, http.MethodGet, "/gateway/cities", nil, "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, res.code)

	res = e.gateway(t, http.MethodGet, "/gateway/cities", nil)
	require.True(t, res.resp.Success)
	assert.Len(t, res.resp.Data, 27)
}

func TestOnboardingAndRegistration(t *testing.T) {
	e := newEnv(t)
	shift := e.shift(t, 1, 1)

	res := e.gateway(t, http.MethodPost, "/gateway/workers", map[string]string{"handle": "ivan", "email": "ivan@example.com"})
	require.True(t, res.resp.Success, res.resp.Message)
	workerID := int64(res.data()["id"].(float64))

	res = e.gateway(t, http.MethodPost, "/gateway/workers", map[string]string{"handle": "ivan", "email": "other@example.com"})
	assert.Equal(t, "账号或邮箱已存在", res.resp.Message)

	registerPath := fmt.Sprintf("/gateway/shifts/%d/register", shift.ID)
	res = e.gateway(t, http.MethodPost, registerPath, map[string]any{"workerID": workerID, "role": "main"})
	assert.False(t, res.resp.Success)
	assert.Equal(t, "请先完善个人资料", res.resp.Message)

	res = e.gateway(t, http.MethodPut, fmt.Sprintf("/gateway/workers/%d", workerID), map[string]any{
		"city":     "Москва",
		"fullName": "Иван Петров",
		"phone":    "+79001234567",
		"age":      25,
	})
	require.True(t, res.resp.Success, res.resp.Message)
	assert.Equal(t, true, res.data()["isActive"])

	res = e.gateway(t, http.MethodPost, registerPath, map[string]any{"workerID": workerID, "role": "main"})
	require.True(t, res.resp.Success, res.resp.Message)
	assert.Equal(t, float64(1), res.data()["position"])

	res = e.gateway(t, http.MethodPost, registerPath, map[string]any{"workerID": workerID, "role": "reserve"})
	assert.Equal(t, "已经报名过该班次", res.resp.Message)

	other := e.store.AddWorker("Москва", "Пётр Сидоров")
	res = e.gateway(t, http.MethodPost, registerPath, map[string]any{"workerID": other, "role": "main"})
	assert.Equal(t, "名额已满，请尝试另一种角色", res.resp.Message)

	res = e.gateway(t, http.MethodPost, registerPath, map[string]any{"workerID": other, "role": "boss"})
	assert.False(t, res.resp.Success)

	res = e.gateway(t, http.MethodGet, fmt.Sprintf("/gateway/shifts/%d/slots", shift.ID), nil)
	require.True(t, res.resp.Success)
	assert.Equal(t, float64(0), res.data()["mainFree"])
	assert.Equal(t, float64(1), res.data()["reserveFree"])

	res = e.gateway(t, http.MethodGet, "/gateway/shifts/active?city=Москва", nil)
	require.True(t, res.resp.Success)
	assert.NotNil(t, res.data()["shift"])

	res = e.gateway(t, http.MethodGet, fmt.Sprintf("/gateway/workers/%d", workerID), nil)
	require.True(t, res.resp.Success)
	assert.Equal(t, "ivan", res.data()["handle"])
	assert.NotNil(t, res.data()["profile"])
}

func TestSubmitProfileChecksInput(t *testing.T) {
	e := newEnv(t)
	workerID := e.store.AddWorker("Москва", "Иван Петров")
	path := fmt.Sprintf("/gateway/workers/%d", workerID)

	res := e.gateway(t, http.MethodPut, path, map[string]any{
		"city": "Атлантида", "fullName": "Иван Петров", "phone": "+79001234567", "age": 25,
	})
	assert.Equal(t, "不支持的城市", res.resp.Message)

	res = e.gateway(t, http.MethodPut, path, map[string]any{
		"city": "Москва", "fullName": "Иван Петров", "phone": "+79001234567", "age": 12,
	})
	assert.Equal(t, "年龄必须在 16 到 80 之间", res.resp.Message)

	res = e.gateway(t, http.MethodPut, "/gateway/workers/999", map[string]any{
		"city": "Москва", "fullName": "Иван Петров", "phone": "+79001234567", "age": 25,
	})
	assert.Equal(t, "工人不存在", res.resp.Message)
}

func TestAdminRoutesRequireLogin(t *testing.T) {
	e := newEnv(t)

	res := e.call(t, http.MethodGet, "/shifts/active?city=Москва", nil)
	assert.False(t, res.resp.Success)
	assert.Equal(t, "用户未登录", res.resp.Message)

	e.cookie = &http.Cookie{Name: "__gig_roster_token", Value: "garbage"}
	res = e.call(t, http.MethodGet, "/my-info", nil)
	assert.Equal(t, "无效的令牌", res.resp.Message)
}

func TestLoginAndManageShift(t *testing.T) {
	e := newEnv(t)

	res := e.call(t, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, "用户名不存在或密码错误", res.resp.Message)

	e.login(t)

	res = e.call(t, http.MethodGet, "/my-info", nil)
	require.True(t, res.resp.Success)
	assert.Equal(t, "admin", res.data()["username"])
	assert.NotContains(t, res.data(), "passwordHash")

	res = e.call(t, http.MethodPost, "/shifts", map[string]any{
		"city": "Атлантида", "date": "20.10.2026", "address": "-", "mainSlots": 1,
	})
	assert.Equal(t, "不支持的城市", res.resp.Message)

	res = e.call(t, http.MethodPost, "/shifts", map[string]any{
		"city":                "Москва",
		"date":                "20.10.2026, 09:00",
		"address":             "ул. Складская, 1",
		"payment":             "3000 ₽",
		"mainSlots":           2,
		"reserveSlots":        1,
		"eveningReminderTime": "20:00",
		"morningReminderTime": "7:30",
	})
	require.True(t, res.resp.Success, res.resp.Message)
	assert.Equal(t, "07:30", res.data()["morningReminderTime"])
	shiftID := int64(res.data()["id"].(float64))

	res = e.call(t, http.MethodPost, "/shifts", map[string]any{
		"city": "Москва", "date": "20.10.2026", "address": "-", "mainSlots": 1, "eveningReminderTime": "25:99",
	})
	assert.False(t, res.resp.Success)

	e.store.AddWorker("Москва", "Иван Петров")
	res = e.call(t, http.MethodPost, fmt.Sprintf("/shifts/%d/publish", shiftID), nil)
	require.True(t, res.resp.Success)
	assert.Equal(t, float64(1), res.data()["sent"])

	res = e.call(t, http.MethodGet, "/shifts/active?city=Москва", nil)
	require.True(t, res.resp.Success)
	assert.Equal(t, float64(shiftID), res.data()["shift"].(map[string]any)["id"])

	res = e.call(t, http.MethodGet, "/shifts/active?city=Самара", nil)
	assert.True(t, res.resp.Success)
	assert.Nil(t, res.resp.Data)

	res = e.call(t, http.MethodGet, "/shifts/999", nil)
	assert.Equal(t, "班次不存在", res.resp.Message)

	res = e.call(t, http.MethodPost, fmt.Sprintf("/shifts/%d/finalize", shiftID), nil)
	require.True(t, res.resp.Success)

	res = e.call(t, http.MethodPost, fmt.Sprintf("/shifts/%d/finalize", shiftID), nil)
	assert.Equal(t, "班次已结束", res.resp.Message)
}

func TestActionLinksConfirmAndDecline(t *testing.T) {
	e := newEnv(t)
	shift := e.shift(t, 2, 0)
	workerID := e.store.AddWorker("Москва", "Иван Петров")
	_, err := e.svc.Register(context.Background(), shift.ID, workerID, domain.RoleMain)
	require.NoError(t, err)

	e.tokens.grants["confirm-token"] = domain.ActionGrant{Kind: domain.ActionConfirm, ShiftID: shift.ID, WorkerID: workerID}
	e.tokens.grants["decline-token"] = domain.ActionGrant{Kind: domain.ActionDecline, ShiftID: shift.ID, WorkerID: workerID}

	res := e.call(t, http.MethodPost, "/actions/confirm-token", nil)
	require.True(t, res.resp.Success, res.resp.Message)
	assert.Equal(t, "确认成功", res.resp.Message)

	res = e.call(t, http.MethodPost, "/actions/confirm-token", nil)
	require.True(t, res.resp.Success)
	assert.Equal(t, "已经确认过了", res.resp.Message)

	res = e.call(t, http.MethodPost, "/actions/decline-token", nil)
	require.True(t, res.resp.Success, res.resp.Message)
	assert.Equal(t, []string{"decline-token"}, e.tokens.revoked)

	res = e.call(t, http.MethodPost, "/actions/decline-token", nil)
	assert.Equal(t, "链接已失效", res.resp.Message)

	res = e.call(t, http.MethodPost, "/actions/confirm-token", nil)
	assert.Equal(t, "当前状态下无法执行该操作", res.resp.Message)
}

func TestActionLinkGetDoesNotChangeState(t *testing.T) {
	e := newEnv(t)
	shift := e.shift(t, 1, 0)
	workerID := e.store.AddWorker("Москва", "Иван Петров")
	_, err := e.svc.Register(context.Background(), shift.ID, workerID, domain.RoleMain)
	require.NoError(t, err)

	e.tokens.grants["decline-token"] = domain.ActionGrant{Kind: domain.ActionDecline, ShiftID: shift.ID, WorkerID: workerID}
	e.tokens.grants["confirm-token"] = domain.ActionGrant{Kind: domain.ActionConfirm, ShiftID: shift.ID, WorkerID: workerID}

	for i := 0; i < 5; i++ {
		res := e.call(t, http.MethodGet, "/actions/decline-token", nil)
		require.True(t, res.resp.Success, res.resp.Message)
		assert.Equal(t, "decline", res.data()["kind"])
		assert.Equal(t, false, res.data()["needsReason"])
		assert.Equal(t, float64(shift.ID), res.data()["shift"].(map[string]any)["id"])
	}
	res := e.call(t, http.MethodGet, "/actions/confirm-token", nil)
	require.True(t, res.resp.Success, res.resp.Message)

	m, err := e.store.GetMembership(context.Background(), shift.ID, workerID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRegistered, m.Status)

	profile, err := e.store.GetProfile(context.Background(), workerID)
	require.NoError(t, err)
	assert.Zero(t, profile.ConsecutiveFailures)
	assert.Zero(t, profile.RefusedShifts)
	assert.True(t, profile.IsActive)
	assert.Empty(t, e.tokens.revoked)
}

func TestActionLinkRegister(t *testing.T) {
	e := newEnv(t)
	shift := e.shift(t, 1, 1)
	workerID := e.store.AddWorker("Москва", "Иван Петров")

	e.tokens.grants["register-reserve"] = domain.ActionGrant{Kind: domain.ActionRegister, ShiftID: shift.ID, WorkerID: workerID, Role: domain.RoleReserve}

	res := e.call(t, http.MethodGet, "/actions/register-reserve", nil)
	require.True(t, res.resp.Success, res.resp.Message)
	assert.Equal(t, "reserve", res.data()["role"])
	_, err := e.store.GetMembership(context.Background(), shift.ID, workerID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	res = e.call(t, http.MethodPost, "/actions/register-reserve", nil)
	require.True(t, res.resp.Success, res.resp.Message)
	assert.Equal(t, "reserve", res.data()["role"])
}

func TestActionLinkReportNoShow(t *testing.T) {
	e := newEnv(t)
	shift := e.shift(t, 1, 0)
	workerID := e.store.AddWorker("Москва", "Иван Петров")
	_, err := e.svc.Register(context.Background(), shift.ID, workerID, domain.RoleMain)
	require.NoError(t, err)

	e.tokens.grants["no-show"] = domain.ActionGrant{Kind: domain.ActionReportNoShow, ShiftID: shift.ID, WorkerID: workerID}

	res := e.call(t, http.MethodPost, "/actions/no-show", map[string]string{"reason": "болел"})
	assert.Equal(t, "班次尚未结束", res.resp.Message)

	_, err = e.svc.FinalizeShift(context.Background(), shift.ID)
	require.NoError(t, err)

	res = e.call(t, http.MethodGet, "/actions/no-show", nil)
	require.True(t, res.resp.Success)
	assert.Equal(t, true, res.data()["needsReason"])

	res = e.call(t, http.MethodPost, "/actions/no-show", map[string]string{"reason": "болел"})
	require.True(t, res.resp.Success, res.resp.Message)
	assert.Equal(t, false, res.data()["worked"])

	result, err := e.store.GetShiftResult(context.Background(), shift.ID, workerID)
	require.NoError(t, err)
	assert.Equal(t, "болел", result.DeclineReason)

	m, err := e.store.GetMembership(context.Background(), shift.ID, workerID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRemoved, m.Status)
}

func TestUnblockFlowOverHTTP(t *testing.T) {
	e := newEnv(t)
	workerID := e.store.AddWorker("Москва", "Иван Петров")
	path := fmt.Sprintf("/gateway/workers/%d/unblock-requests", workerID)

	res := e.gateway(t, http.MethodPost, path, map[string]string{"message": "Прошу разблокировать меня"})
	assert.Equal(t, "账号未被停用", res.resp.Message)

	_, err := e.store.BlockWorker(context.Background(), workerID)
	require.NoError(t, err)

	res = e.gateway(t, http.MethodPost, path, map[string]string{"message": "прошу"})
	assert.Equal(t, "申请内容至少需要 10 个字符", res.resp.Message)

	res = e.gateway(t, http.MethodPost, path, map[string]string{"message": "Прошу разблокировать меня"})
	require.True(t, res.resp.Success, res.resp.Message)
	assert.Equal(t, false, res.data()["duplicate"])
	requestID := int64(res.data()["request"].(map[string]any)["id"].(float64))

	res = e.gateway(t, http.MethodPost, path, map[string]string{"message": "Прошу разблокировать меня"})
	assert.True(t, res.resp.Success)
	assert.Equal(t, "已有待处理的解封申请", res.resp.Message)
	assert.Equal(t, true, res.data()["duplicate"])

	e.login(t)

	res = e.call(t, http.MethodGet, "/unblock-requests", nil)
	require.True(t, res.resp.Success)
	assert.Len(t, res.resp.Data, 1)

	res = e.call(t, http.MethodPost, fmt.Sprintf("/unblock-requests/%d/approve", requestID), nil)
	require.True(t, res.resp.Success, res.resp.Message)
	assert.Equal(t, "approved", res.data()["status"])

	res = e.call(t, http.MethodPost, fmt.Sprintf("/unblock-requests/%d/deny", requestID), nil)
	assert.Equal(t, "当前状态下无法执行该操作", res.resp.Message)

	profile, err := e.store.GetProfile(context.Background(), workerID)
	require.NoError(t, err)
	assert.True(t, profile.IsActive)
	assert.Zero(t, profile.ConsecutiveFailures)
}
