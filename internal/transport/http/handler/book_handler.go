package handler

import (
	"github.com/gin-gonic/gin"

	"bibliotheca/internal/service"
	mdw "bibliotheca/internal/transport/http/middleware"
)

type BookHandler struct {
	catalog  *service.CatalogService
	pageSize int
}

func NewBookHandler(catalog *service.CatalogService, pageSize int) *BookHandler {
	return &BookHandler{catalog: catalog, pageSize: pageSize}
}

// MountPublic 目录浏览与检索不要求登录
func (h *BookHandler) MountPublic(g *gin.RouterGroup) {
	g.GET("/books", h.list)
	g.GET("/books/search", h.search)
	g.GET("/books/:id", h.get)
}

// MountAdmin 目录维护是管理员操作
func (h *BookHandler) MountAdmin(g *gin.RouterGroup) {
	g.POST("/books", h.add)
	g.PUT("/books/:id", h.update)
	g.DELETE("/books/:id", h.delete)
}

func (h *BookHandler) list(c *gin.Context) {
	offset, limit, page := pageArgs(c, h.pageSize)
	books, total, err := h.catalog.List(c, offset, limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, paged(books, total, page, limit))
}

func (h *BookHandler) search(c *gin.Context) {
	offset, limit, page := pageArgs(c, h.pageSize)
	books, total, err := h.catalog.Search(c, c.Query("q"), c.Query("category"), offset, limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, paged(books, total, page, limit))
}

func (h *BookHandler) get(c *gin.Context) {
	book, err := h.catalog.Get(c, c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, book)
}

type bookIn struct {
	Title           string `json:"title" binding:"required,max=255"`
	Author          string `json:"author" binding:"required,max=255"`
	ISBN            string `json:"isbn" binding:"required,max=20"`
	Publisher       string `json:"publisher" binding:"omitempty,max=255"`
	PublicationYear int    `json:"publicationYear"`
	Description     string `json:"description"`
	Category        string `json:"category" binding:"omitempty,max=100"`
	Language        string `json:"language" binding:"omitempty,max=50"`
	Pages           int    `json:"pages"`
	Quantity        int    `json:"quantity" binding:"omitempty,min=1"`
	LocationShelf   string `json:"locationShelf" binding:"omitempty,max=50"`
	CoverImage      string `json:"coverImage" binding:"omitempty,max=255"`
}

func (in bookIn) toInput() service.BookInput {
	return service.BookInput{
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Publisher:       in.Publisher,
		PublicationYear: in.PublicationYear,
		Description:     in.Description,
		Category:        in.Category,
		Language:        in.Language,
		Pages:           in.Pages,
		Quantity:        in.Quantity,
		LocationShelf:   in.LocationShelf,
		CoverImage:      in.CoverImage,
	}
}

func (h *BookHandler) add(c *gin.Context) {
	var in bookIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	book, err := h.catalog.Add(c, mdw.ActorFrom(c), in.toInput())
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, book)
}

func (h *BookHandler) update(c *gin.Context) {
	var in bookIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	book, err := h.catalog.Update(c, mdw.ActorFrom(c), c.Param("id"), in.toInput())
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, book)
}

func (h *BookHandler) delete(c *gin.Context) {
	if err := h.catalog.Delete(c, mdw.ActorFrom(c), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	ok(c, gin.H{"id": c.Param("id")})
}
