package handler

import (
	"github.com/gin-gonic/gin"

	"bibliotheca/internal/domain"
	"bibliotheca/internal/service"
	mdw "bibliotheca/internal/transport/http/middleware"
)

type CirculationHandler struct {
	circ     *service.CirculationService
	pageSize int
}

func NewCirculationHandler(circ *service.CirculationService, pageSize int) *CirculationHandler {
	return &CirculationHandler{circ: circ, pageSize: pageSize}
}

// MountAuthed 流通操作：借出、归还、续借、逾期清单。
// 谁能操作哪条记录由策略层决定，这里只做绑定和翻译。
func (h *CirculationHandler) MountAuthed(g *gin.RouterGroup) {
	g.GET("/loans", h.list)
	g.GET("/loans/overdue", h.overdue)
	g.GET("/loans/:id", h.get)
	g.POST("/loans/checkout", h.checkout)
	g.POST("/loans/:id/return", h.returnLoan)
	g.POST("/loans/:id/renew", h.renew)
}

// MountAdmin 罚金结清是管理台操作
func (h *CirculationHandler) MountAdmin(g *gin.RouterGroup) {
	g.POST("/loans/:id/fine/pay", h.payFine)
}

// loanView 在记录之上补充展示层需要的派生状态
type loanView struct {
	*domain.Loan
	Overdue      bool  `json:"overdue"`
	FineDueCents int64 `json:"fineDueCents"`
}

func (h *CirculationHandler) view(l *domain.Loan) loanView {
	return loanView{Loan: l, Overdue: h.circ.IsOverdue(l), FineDueCents: h.circ.Fine(l)}
}

func (h *CirculationHandler) views(ls []domain.Loan) []loanView {
	out := make([]loanView, 0, len(ls))
	for i := range ls {
		out = append(out, h.view(&ls[i]))
	}
	return out
}

func (h *CirculationHandler) list(c *gin.Context) {
	offset, limit, page := pageArgs(c, h.pageSize)
	ls, total, err := h.circ.List(c, mdw.ActorFrom(c), c.Query("memberId"), offset, limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, paged(h.views(ls), total, page, limit))
}

func (h *CirculationHandler) overdue(c *gin.Context) {
	ls, err := h.circ.Overdue(c, mdw.ActorFrom(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, h.views(ls))
}

func (h *CirculationHandler) get(c *gin.Context) {
	l, err := h.circ.Get(c, mdw.ActorFrom(c), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, h.view(l))
}

type checkoutIn struct {
	BookID   string `json:"bookId" binding:"required"`
	MemberID string `json:"memberId" binding:"required"`
}

func (h *CirculationHandler) checkout(c *gin.Context) {
	var in checkoutIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	l, err := h.circ.Checkout(c, mdw.ActorFrom(c), in.BookID, in.MemberID)
	mdw.ObserveCirculation("checkout", err)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, h.view(l))
}

func (h *CirculationHandler) returnLoan(c *gin.Context) {
	l, err := h.circ.Return(c, mdw.ActorFrom(c), c.Param("id"))
	mdw.ObserveCirculation("return", err)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, h.view(l))
}

func (h *CirculationHandler) renew(c *gin.Context) {
	l, err := h.circ.Renew(c, mdw.ActorFrom(c), c.Param("id"))
	mdw.ObserveCirculation("renew", err)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, h.view(l))
}

func (h *CirculationHandler) payFine(c *gin.Context) {
	l, err := h.circ.PayFine(c, mdw.ActorFrom(c), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, h.view(l))
}
