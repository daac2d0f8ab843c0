package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/filenest/filenest/apperr"
	"github.com/filenest/filenest/models"
	"github.com/filenest/filenest/services"
	"github.com/filenest/filenest/utils"
)

// ContextAccountKey is the key used to store the authenticated account in Gin context.
// Identity is resolved per request from the presented token — never from
// process-wide state — so concurrent requests from different users cannot
// observe each other's identity.
const ContextAccountKey = "account"

// AuthRequired resolves the bearer token and stores the account in context.
func AuthRequired(tokens *services.TokenService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, "invalid authorization header format")
			ctx.Abort()
			return
		}

		token := strings.TrimSpace(parts[1])
		account, err := tokens.Resolve(ctx.Request.Context(), token)
		if err != nil {
			utils.Error(ctx, apperr.Status(err), apperr.Message(err))
			ctx.Abort()
			return
		}

		ctx.Set(ContextAccountKey, account)
		ctx.Next()
	}
}

// CurrentAccount returns the account resolved by AuthRequired.
func CurrentAccount(ctx *gin.Context) (*models.Account, bool) {
	v, ok := ctx.Get(ContextAccountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*models.Account)
	return account, ok
}
