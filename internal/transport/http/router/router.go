package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bibliotheca/internal/core/auth"
	"bibliotheca/internal/domain"
	"bibliotheca/internal/transport/http/handler"
	mdw "bibliotheca/internal/transport/http/middleware"
)

type Handlers struct {
	Auth        *handler.AuthHandler
	Books       *handler.BookHandler
	Members     *handler.MemberHandler
	Circulation *handler.CirculationHandler
	Reports     *handler.ReportHandler
}

// New 单引擎承载读者端与管理端，角色差异交给策略层
func New(l *zap.Logger, jwter *auth.JWTer, h Handlers) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(4<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(l, true),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// 公共：注册、登录、目录浏览。凭证接口额外加每 IP 限速防爆破
	creds := api.Group("")
	creds.Use(mdw.RateLimitPerIP(5, 10))
	h.Auth.MountPublic(creds)
	h.Books.MountPublic(api)

	// 登录后：个人信息、流通操作、个人资料
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(jwter, ""))
	h.Auth.MountAuthed(authed)
	h.Circulation.MountAuthed(authed)
	h.Members.MountAuthed(authed)

	// 管理端：目录维护、成员管理、报表、罚金
	admin := api.Group("")
	admin.Use(mdw.AuthJWT(jwter, domain.RoleAdmin))
	h.Books.MountAdmin(admin)
	h.Members.MountAdmin(admin)
	h.Circulation.MountAdmin(admin)
	h.Reports.MountAdmin(admin)

	return r
}
