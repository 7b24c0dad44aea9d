package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanni/community/middleware"
	"github.com/yanni/community/store"
	"github.com/yanni/community/utils"
)

// fail writes err using the status that matches its kind. site distinguishes
// failure points in the numeric code, e.g. site 3 on a not-found becomes 40403.
func fail(ctx *gin.Context, err error, site int) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	utils.Error(ctx, status, status*100+site, msg)
}

func statusOf(err error) int {
	switch store.KindOf(err) {
	case store.KindValidation:
		return http.StatusBadRequest
	case store.KindNotFound:
		return http.StatusNotFound
	case store.KindAuth:
		return http.StatusUnauthorized
	case store.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(ctx *gin.Context, site int, msg string) {
	utils.Error(ctx, http.StatusBadRequest, http.StatusBadRequest*100+site, msg)
}

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(ctx, 99, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parsePagination accepts either offset/limit or page/page_size.
func parsePagination(ctx *gin.Context) (offset, limit int) {
	limit = store.DefaultPageSize
	if s, err := strconv.Atoi(ctx.Query("limit")); err == nil && s > 0 {
		limit = s
	} else if s, err := strconv.Atoi(ctx.Query("page_size")); err == nil && s > 0 {
		limit = s
	}
	if limit > store.MaxPageSize {
		limit = store.MaxPageSize
	}
	if o, err := strconv.Atoi(ctx.Query("offset")); err == nil && o >= 0 {
		offset = o
	} else if p, err := strconv.Atoi(ctx.Query("page")); err == nil && p > 0 {
		offset = (p - 1) * limit
	}
	return offset, limit
}

// currentUserID returns the authenticated caller. Routes using it sit behind
// middleware.AuthRequired, so a miss means a wiring bug.
func currentUserID(ctx *gin.Context) (uint, bool) {
	id, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return 0, false
	}
	return id.UserID, true
}
