package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filenest/filenest/apperr"
	"github.com/filenest/filenest/middleware"
	"github.com/filenest/filenest/services"
	"github.com/filenest/filenest/utils"
)

// UserController handles sign-up, login, and account removal.
type UserController struct {
	identity *services.IdentityService
	tokens   *services.TokenService
}

// NewUserController creates a UserController.
func NewUserController(identity *services.IdentityService, tokens *services.TokenService) *UserController {
	return &UserController{identity: identity, tokens: tokens}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// SignUp creates an account and returns its first session token.
func (u *UserController) SignUp(ctx *gin.Context) {
	var body loginRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "username and password are required")
		return
	}

	account, err := u.identity.Register(ctx.Request.Context(), body.Username, body.Password)
	if err != nil {
		fail(ctx, err)
		return
	}

	token, err := u.tokens.IssueOrRotate(ctx.Request.Context(), account)
	if err != nil {
		fail(ctx, err)
		return
	}

	utils.Sugar.Infow("account created", "username", account.Username, "uuid", account.UUID)
	ctx.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Login verifies credentials and rotates the account's session token.
func (u *UserController) Login(ctx *gin.Context) {
	var body loginRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "username and password are required")
		return
	}

	account, err := u.identity.Authenticate(ctx.Request.Context(), body.Username, body.Password)
	if err != nil {
		fail(ctx, err)
		return
	}

	token, err := u.tokens.IssueOrRotate(ctx.Request.Context(), account)
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tokenResponse{Token: token})
}

// RemoveAccount deletes the authenticated account, its files, and its token.
func (u *UserController) RemoveAccount(ctx *gin.Context) {
	account, ok := middleware.CurrentAccount(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, "account not found")
		return
	}

	if err := u.identity.RemoveAccount(ctx.Request.Context(), account); err != nil {
		fail(ctx, err)
		return
	}

	utils.Sugar.Infow("account removed", "username", account.Username, "uuid", account.UUID)
	ctx.Status(http.StatusOK)
}

// fail renders a coordinator-level error with its mapped status code.
func fail(ctx *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.Internal && utils.Sugar != nil {
		utils.Sugar.Errorw("request failed", "path", ctx.Request.URL.Path, "err", err)
	}
	utils.Error(ctx, apperr.Status(err), apperr.Message(err))
}
