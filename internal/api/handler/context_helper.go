package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/scope"
	apperr "cir-dashboard/backend/pkg/errors"
	"cir-dashboard/backend/pkg/response"
)

// 上下文键，由 JWTAuth 中间件写入
const (
	ctxUserID          = "user_id"
	ctxRole            = "role"
	ctxSubDepartmentID = "sub_department_id"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetIdentity 组装请求身份
// 未知角色原样透传，由授权逻辑统一拒绝
func MustGetIdentity(c *gin.Context) (scope.Identity, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return scope.Identity{}, false
	}
	role, ok := c.Get(ctxRole)
	roleStr, isStr := role.(string)
	if !ok || !isStr || roleStr == "" {
		response.Unauthorized(c, 10002, "未认证")
		return scope.Identity{}, false
	}

	id := scope.Identity{UserID: userID, Role: model.Role(roleStr)}
	if v, exists := c.Get(ctxSubDepartmentID); exists {
		if s, ok := v.(string); ok && s != "" {
			id.SubDepartmentID = &s
		}
	}
	return id, true
}

// errorCodes 各模块业务错误码前缀，后两位按错误分类区分
type errorCodes struct {
	notFound   int
	badRequest int
	forbidden  int
}

var (
	responsibilityCodes = errorCodes{notFound: 21001, badRequest: 21002, forbidden: 21003}
	submissionCodes     = errorCodes{notFound: 22001, badRequest: 22002, forbidden: 22003}
	groupCodes          = errorCodes{notFound: 23001, badRequest: 23002, forbidden: 23003}
	exportCodes         = errorCodes{notFound: 24001, badRequest: 24002, forbidden: 24003}
)

// handleError 按错误分类写入响应
// 事务超时返回 503 提示可重试；其余非业务错误一律 500 且不回显内部信息
func handleError(c *gin.Context, logger *zap.Logger, codes errorCodes, err error) {
	if errors.Is(err, apperr.ErrTxTimeout) {
		response.Error(c, http.StatusServiceUnavailable, 50300, err.Error())
		return
	}

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		response.NotFound(c, codes.notFound, err.Error())
	case apperr.KindBadRequest:
		response.BadRequest(c, codes.badRequest, err.Error())
	case apperr.KindForbidden:
		response.Forbidden(c, codes.forbidden, err.Error())
	default:
		if logger != nil {
			logger.Error("请求处理失败",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		response.InternalError(c)
	}
}

// bindError 参数校验失败统一返回 10001，附带校验详情
func bindError(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}
