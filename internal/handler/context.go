package handler

type ContextKey string

var (
	SubCtxKey      ContextKey = "sub"
	ShiftCtx       ContextKey = "shift"
	WorkerCtx      ContextKey = "worker"
	ActionGrantCtx ContextKey = "actionGrant"
	ActionTokenCtx ContextKey = "actionToken"
)
