package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bibliotheca/internal/service"
	resp "bibliotheca/internal/transport/http/response"
)

// writeErr 把 service 层的哨兵错误统一翻译成响应包；
// 业务规则拒绝一律 409，消息原样透出给展示层。
func writeErr(c *gin.Context, err error) {
	code := resp.CodeServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		code = resp.CodeNotFound
	case errors.Is(err, service.ErrPermissionDenied):
		code = resp.CodeForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		code = resp.CodeUnauthorized
	case errors.Is(err, service.ErrDuplicateKey),
		errors.Is(err, service.ErrBookUnavailable),
		errors.Is(err, service.ErrLoanLimitExceeded),
		errors.Is(err, service.ErrMemberHasOverdueBooks),
		errors.Is(err, service.ErrMemberInactive),
		errors.Is(err, service.ErrAlreadyReturned),
		errors.Is(err, service.ErrRenewalBlockedOverdue),
		errors.Is(err, service.ErrHasActiveLoans):
		code = resp.CodeConflict
	}
	c.JSON(http.StatusOK, resp.Error(code, err.Error()))
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, resp.OK(data))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, msg))
}

// pageArgs ?page=1&size=20 → offset/limit，size 夹在 [1, 100]
func pageArgs(c *gin.Context, defaultSize int) (offset, limit, page int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.Query("size"))
	if size <= 0 || size > 100 {
		size = defaultSize
	}
	return (page - 1) * size, size, page
}

type pageOut struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}

func paged(list interface{}, total int64, page, size int) pageOut {
	return pageOut{List: list, Total: total, Page: page, Size: size}
}
