package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/linkup-social/linkup/middleware"
	"github.com/linkup-social/linkup/services"
	"github.com/linkup-social/linkup/utils"
)

// Response codes per error kind.
const (
	CodeValidation       = 40000
	CodeInvalidOperation = 40010
	CodeUnauthorized     = 40100
	CodeForbidden        = 40300
	CodeNotFound         = 40400
	CodeConflict         = 40900
	CodeInternal         = 50000
)

// respondError converts a service error into the response envelope.
func respondError(ctx *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		se = services.Internal(err)
	}

	status, code := statusFor(se.Kind)
	if se.Kind == services.KindInternal {
		utils.Logger.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.String("request_id", ctx.GetString(middleware.ContextRequestIDKey)),
			zap.Error(err),
		)
	}

	var data interface{}
	if len(se.Fields) > 0 {
		data = gin.H{"fields": se.Fields}
	}
	utils.Respond(ctx, status, code, se.Message, data)
}

func statusFor(kind services.Kind) (int, int) {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest, CodeValidation
	case services.KindInvalidOperation:
		return http.StatusBadRequest, CodeInvalidOperation
	case services.KindUnauthorized:
		return http.StatusUnauthorized, CodeUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden, CodeForbidden
	case services.KindNotFound:
		return http.StatusNotFound, CodeNotFound
	case services.KindConflict:
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// bindJSON binds the request body and writes a validation failure when it does not fit.
func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		respondError(ctx, services.ValidationFailed("invalid request payload", utils.FieldErrors(err)...))
		return false
	}
	return true
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || id == 0 {
		respondError(ctx, services.ValidationFailed("invalid "+name, utils.FieldError{Field: name, Rule: "id"}))
		return 0, false
	}
	return uint(id), true
}

// requireCaller returns the authenticated caller or writes an Unauthorized response.
func requireCaller(ctx *gin.Context) (services.Caller, bool) {
	caller := middleware.CallerFrom(ctx)
	if caller == nil {
		respondError(ctx, services.Unauthorized("unauthorized"))
		return services.Caller{}, false
	}
	return *caller, true
}
