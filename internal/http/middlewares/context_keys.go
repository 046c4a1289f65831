package middlewares

// Keys under which request-scoped values live on the gin context.
// The handlers package reads CtxRequestID by its literal value.
const (
	CtxRequestID = "request_id"
	CtxIdentity  = "auth.identity"
)
