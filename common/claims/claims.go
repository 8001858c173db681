package claims

import (
	"context"

	"github.com/sri-ravi13/Orphan-Management-System/common/roles"
)

type contextKey struct{}

// Caller is the user resolved by the identity middleware. It never carries a
// password.
type Caller struct {
	UserId   string `json:"id" mapstructure:"userId"`
	Username string `json:"username" mapstructure:"username"`
	Name     string `json:"name" mapstructure:"name"`
	Email    string `json:"email" mapstructure:"email"`
	Role     string `json:"role" mapstructure:"role"`
}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, caller)
}

func GetCaller(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(contextKey{}).(Caller)
	return caller, ok
}

func GetUserId(ctx context.Context) string {
	caller, _ := GetCaller(ctx)
	return caller.UserId
}

func IsAdmin(ctx context.Context) bool {
	caller, ok := GetCaller(ctx)
	return ok && caller.Role == roles.ROLE_ADMIN
}
