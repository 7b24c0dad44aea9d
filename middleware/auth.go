package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanni/community/auth"
	"github.com/yanni/community/utils"
)

const (
	// ContextIdentityKey stores the verified auth.Identity inside Gin context.
	ContextIdentityKey = "identity"
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
)

// AuthRequired rejects requests without a valid, unrevoked bearer token.
func AuthRequired(guard *auth.Guard) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader("Authorization") == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}
		id, err := guard.Authenticate(ctx.Request.Context(), ctx.GetHeader("Authorization"))
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40102, err.Error())
			ctx.Abort()
			return
		}
		ctx.Set(ContextIdentityKey, id)
		ctx.Set(ContextUserIDKey, id.UserID)
		ctx.Next()
	}
}

// CurrentIdentity returns the identity set by AuthRequired.
func CurrentIdentity(ctx *gin.Context) (auth.Identity, bool) {
	v, ok := ctx.Get(ContextIdentityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
