package handler

import (
	"errors"
	"net/http"
	"strconv"

	"user-registration/internal/logger"
	"user-registration/internal/middleware"
	"user-registration/internal/usecase/account"
	appErrors "user-registration/pkg/errors"
	"user-registration/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AccountHandler struct {
	service *account.Service
	// exposeErrors adds the internal error text to 500 responses
	exposeErrors bool
}

func NewAccountHandler(service *account.Service, exposeErrors bool) *AccountHandler {
	return &AccountHandler{service: service, exposeErrors: exposeErrors}
}

func (h *AccountHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/profile/:id", h.GetProfile)
	}
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req account.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "registration completed successfully", resp)
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req account.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "login successful", resp)
}

func (h *AccountHandler) GetProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.ErrorResponse(c, http.StatusNotFound, appErrors.ErrAccountNotFound.Error())
		return
	}

	resp, err := h.service.GetProfile(c.Request.Context(), id)
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *AccountHandler) respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var validationErr *appErrors.ValidationError

	switch {
	case errors.As(err, &validationErr):
		utils.ValidationErrorResponse(c, http.StatusBadRequest, appErrors.ErrInvalidInput.Error(), validationErr.Fields)
	case errors.Is(err, appErrors.ErrAccountAlreadyExists):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErrors.ErrInvalidCredentials),
		errors.Is(err, appErrors.ErrAccountInactive):
		utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, appErrors.ErrAccountNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	default:
		logger.Error("Internal server error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		_ = c.Error(err)
		utils.InternalErrorResponse(c, http.StatusInternalServerError, "internal server error", err, h.exposeErrors)
	}
}
