package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/printhub/printhub-backend/internal/middleware"
	"github.com/printhub/printhub-backend/internal/services"
)

// PageHandler renders the server-side pages
type PageHandler struct {
	productService services.ProductService
	orderService   services.OrderService
	statsService   services.StatsService
	keyID          string
}

// NewPageHandler creates a new PageHandler. keyID is the public gateway key used by the checkout widget.
func NewPageHandler(productService services.ProductService, orderService services.OrderService, statsService services.StatsService, keyID string) *PageHandler {
	return &PageHandler{
		productService: productService,
		orderService:   orderService,
		statsService:   statsService,
		keyID:          keyID,
	}
}

func (h *PageHandler) render(c *gin.Context, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["User"] = middleware.CurrentUser(c)
	c.HTML(http.StatusOK, name, data)
}

// Home renders the catalog
func (h *PageHandler) Home(c *gin.Context) {
	page, limit := pagination(c)
	search := strings.TrimSpace(c.Query("search"))
	products, err := h.productService.List(c.Request.Context(), search, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, "home.html", "Catalog", gin.H{"Products": products, "Search": search, "KeyID": h.keyID})
}

// Login renders the sign-in page; signed-in users go home
func (h *PageHandler) Login(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.render(c, "login.html", "Log in", gin.H{"Next": localPath(c.Query("next"))})
}

// localPath returns next when it is a path on this site, else "/".
// Browsers read a backslash as a slash and drop tabs and newlines, so either could turn next into //host.
func localPath(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	if strings.ContainsFunc(next, func(r rune) bool { return r == '\\' || r < 0x20 || r == 0x7f }) {
		return "/"
	}
	return next
}

// Register renders the reseller sign-up form
func (h *PageHandler) Register(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.render(c, "register.html", "Register", nil)
}

// Orders renders the signed-in user's orders
func (h *PageHandler) Orders(c *gin.Context) {
	page, limit := pagination(c)
	orders, err := h.orderService.ListMine(c.Request.Context(), middleware.CurrentUser(c).ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, "orders.html", "My orders", gin.H{"Orders": orders})
}

// Admin renders the dashboard
func (h *PageHandler) Admin(c *gin.Context) {
	stats, err := h.statsService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, "admin.html", "Admin", gin.H{"Stats": stats})
}
