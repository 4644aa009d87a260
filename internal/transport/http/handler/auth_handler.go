package handler

import (
	"github.com/gin-gonic/gin"

	"bibliotheca/internal/core/auth"
	"bibliotheca/internal/domain"
	"bibliotheca/internal/service"
	mdw "bibliotheca/internal/transport/http/middleware"
)

type AuthHandler struct {
	members *service.MemberService
	jwter   *auth.JWTer
}

func NewAuthHandler(members *service.MemberService, jwter *auth.JWTer) *AuthHandler {
	return &AuthHandler{members: members, jwter: jwter}
}

// MountPublic /auth/register /auth/login
func (h *AuthHandler) MountPublic(g *gin.RouterGroup) {
	g.POST("/auth/register", h.register)
	g.POST("/auth/login", h.login)
}

// MountAuthed /me
func (h *AuthHandler) MountAuthed(g *gin.RouterGroup) {
	g.GET("/me", h.me)
}

type registerIn struct {
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Phone     string `json:"phone" binding:"omitempty,max=20"`
	Address   string `json:"address" binding:"omitempty,max=255"`
}

type sessionOut struct {
	Token  string         `json:"token"`
	Member *domain.Member `json:"member"`
}

func (h *AuthHandler) register(c *gin.Context) {
	var in registerIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := h.members.Register(c, service.RegisterInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
		Phone:     in.Phone,
		Address:   in.Address,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	tok, err := h.jwter.Issue(m.ID, m.Role())
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, sessionOut{Token: tok, Member: m})
}

type loginIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var in loginIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := h.members.Authenticate(c, in.Email, in.Password)
	if err != nil {
		writeErr(c, err)
		return
	}
	tok, err := h.jwter.Issue(m.ID, m.Role())
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, sessionOut{Token: tok, Member: m})
}

func (h *AuthHandler) me(c *gin.Context) {
	actor := mdw.ActorFrom(c)
	m, err := h.members.Get(c, actor, actor.MemberID)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, m)
}
