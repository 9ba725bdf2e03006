package usercontext

// Locals keys set by the auth middleware
const (
	KeyUserContext = "USER_CONTEXT"
	KeyUserID      = "USER_ID"
	KeyUsername    = "USER_NAME"
	KeyIsAdmin     = "IS_ADMIN"
)
