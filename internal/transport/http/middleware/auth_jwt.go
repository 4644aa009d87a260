package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bibliotheca/internal/core/auth"
	"bibliotheca/internal/domain"
	"bibliotheca/internal/service"
	resp "bibliotheca/internal/transport/http/response"
)

const (
	KeyActorID   = "actorId"
	KeyActorRole = "actorRole"
)

// AuthJWT 解析 Bearer token，把操作者身份注入上下文；
// requireRole 非空时额外做角色闸门。
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(KeyActorID, claims.UID)
		c.Set(KeyActorRole, claims.Role)
		c.Next()
	}
}

// ActorFrom 还原策略层使用的操作者
func ActorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		MemberID: c.GetString(KeyActorID),
		IsAdmin:  c.GetString(KeyActorRole) == domain.RoleAdmin,
	}
}
