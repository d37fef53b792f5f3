package handler

//go:generate mockgen -source=accounts_handler.go -destination=mock_accounts_handler.go -package=handler

import (
	"context"
	"net/http"

	"auction-house/internal/accounts"
	model "auction-house/internal/models"
	"auction-house/services/bidding/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

type AccountsServiceInterface interface {
	Register(ctx context.Context, reg accounts.Registration) (model.User, error)
	Login(ctx context.Context, username, password string) (string, model.User, error)
}

type AccountsHandler struct {
	service AccountsServiceInterface
}

func NewAccountsHandler(service AccountsServiceInterface) *AccountsHandler {
	return &AccountsHandler{service: service}
}

// RegisterHandler handles POST /auth/register
func (h *AccountsHandler) RegisterHandler(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), accounts.Registration{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Confirmation: req.Confirmation,
	})
	if err != nil {
		helpers.HandleServiceError(c, "RegisterHandler", "registration failed", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, toUserResponse(user), "user registered successfully")
}

// LoginHandler handles POST /auth/login
func (h *AccountsHandler) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		helpers.HandleServiceError(c, "LoginHandler", "login failed", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusOK, LoginResponse{Token: token, User: toUserResponse(user)}, "logged in successfully")
	helpers.LogSuccess("LoginHandler", "user logged in", map[string]any{"user_id": user.UserID})
}
