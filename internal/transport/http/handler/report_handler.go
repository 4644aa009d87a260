package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"bibliotheca/internal/service"
	mdw "bibliotheca/internal/transport/http/middleware"
)

type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) MountAdmin(g *gin.RouterGroup) {
	g.GET("/reports/dashboard", h.dashboard)
	g.GET("/reports/circulation", h.circulation)
	g.GET("/reports/member-activity", h.memberActivity)
	g.GET("/reports/inventory", h.inventory)
}

func daysArg(c *gin.Context) int {
	d, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	return d
}

func (h *ReportHandler) dashboard(c *gin.Context) {
	out, err := h.reports.Dashboard(c, mdw.ActorFrom(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, out)
}

func (h *ReportHandler) circulation(c *gin.Context) {
	out, err := h.reports.CirculationStats(c, mdw.ActorFrom(c), daysArg(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, out)
}

func (h *ReportHandler) memberActivity(c *gin.Context) {
	out, err := h.reports.MemberActivity(c, mdw.ActorFrom(c), daysArg(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, out)
}

func (h *ReportHandler) inventory(c *gin.Context) {
	out, err := h.reports.Inventory(c, mdw.ActorFrom(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, out)
}
