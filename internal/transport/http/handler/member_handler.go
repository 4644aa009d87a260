package handler

import (
	"github.com/gin-gonic/gin"

	"bibliotheca/internal/service"
	mdw "bibliotheca/internal/transport/http/middleware"
)

type MemberHandler struct {
	members  *service.MemberService
	pageSize int
}

func NewMemberHandler(members *service.MemberService, pageSize int) *MemberHandler {
	return &MemberHandler{members: members, pageSize: pageSize}
}

// MountAuthed 查看/编辑自己的资料（策略层放行 owner）
func (h *MemberHandler) MountAuthed(g *gin.RouterGroup) {
	g.GET("/members/:id", h.get)
	g.PUT("/members/:id", h.update)
}

// MountAdmin 成员管理
func (h *MemberHandler) MountAdmin(g *gin.RouterGroup) {
	g.GET("/members", h.list)
	g.GET("/members/search", h.search)
	g.POST("/members", h.add)
	g.DELETE("/members/:id", h.delete)
}

func (h *MemberHandler) list(c *gin.Context) {
	offset, limit, page := pageArgs(c, h.pageSize)
	ms, total, err := h.members.List(c, mdw.ActorFrom(c), offset, limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, paged(ms, total, page, limit))
}

func (h *MemberHandler) search(c *gin.Context) {
	offset, limit, page := pageArgs(c, h.pageSize)
	ms, total, err := h.members.Search(c, mdw.ActorFrom(c), c.Query("q"), offset, limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, paged(ms, total, page, limit))
}

func (h *MemberHandler) get(c *gin.Context) {
	m, err := h.members.Get(c, mdw.ActorFrom(c), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, m)
}

type addMemberIn struct {
	registerIn
	IsActive *bool `json:"isActive"`
	IsAdmin  *bool `json:"isAdmin"`
}

func (h *MemberHandler) add(c *gin.Context) {
	var in addMemberIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	isActive := in.IsActive == nil || *in.IsActive
	isAdmin := in.IsAdmin != nil && *in.IsAdmin
	m, err := h.members.Add(c, mdw.ActorFrom(c), service.RegisterInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
		Phone:     in.Phone,
		Address:   in.Address,
	}, isActive, isAdmin)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, m)
}

type updateMemberIn struct {
	FirstName   string `json:"firstName" binding:"required,max=50"`
	LastName    string `json:"lastName" binding:"required,max=50"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone" binding:"omitempty,max=20"`
	Address     string `json:"address" binding:"omitempty,max=255"`
	NewPassword string `json:"newPassword" binding:"omitempty,min=6"`
	IsActive    *bool  `json:"isActive"`
	IsAdmin     *bool  `json:"isAdmin"`
}

func (h *MemberHandler) update(c *gin.Context) {
	var in updateMemberIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := h.members.Update(c, mdw.ActorFrom(c), c.Param("id"), service.UpdateMemberInput{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Phone:       in.Phone,
		Address:     in.Address,
		NewPassword: in.NewPassword,
		IsActive:    in.IsActive,
		IsAdmin:     in.IsAdmin,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, m)
}

func (h *MemberHandler) delete(c *gin.Context) {
	if err := h.members.Delete(c, mdw.ActorFrom(c), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	ok(c, gin.H{"id": c.Param("id")})
}
