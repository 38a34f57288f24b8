package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/printhub/printhub-backend/internal/middleware"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/services"
	"github.com/printhub/printhub-backend/internal/validation"
)

// maxUploadBytes bounds the multipart body; the service enforces the exact card limit
const maxUploadBytes = 6 << 20

// CookieConfig describes the session cookie
type CookieConfig struct {
	Name   string
	MaxAge int
	Secure bool
}

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	authService services.AuthService
	cookie      CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Register handles POST /api/auth/register (multipart form with a visitingCard file)
func (h *AuthHandler) Register(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, services.ErrInvalidUpload)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}
	req.Address = models.Address{
		Line1:      strings.TrimSpace(c.PostForm("line1")),
		Line2:      strings.TrimSpace(c.PostForm("line2")),
		City:       strings.TrimSpace(c.PostForm("city")),
		State:      strings.TrimSpace(c.PostForm("state")),
		Country:    strings.TrimSpace(c.PostForm("country")),
		PostalCode: strings.TrimSpace(c.PostForm("postalCode")),
	}
	if err := validation.Struct(&req); err != nil {
		respondError(c, err)
		return
	}

	card, err := readUpload(c, "visitingCard")
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req, card, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "registration received, your account will be activated once approved",
		"user":    user,
	})
}

func readUpload(c *gin.Context, field string) (*models.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, services.ErrVisitingCardRequired
		}
		return nil, services.ErrInvalidUpload
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &models.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	}, nil
}

// Login handles POST /api/auth/login. A correct password triggers an emailed code.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.Login(c.Request.Context(), &req, requestMeta(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"otpRequired": true, "message": "a sign-in code has been sent to your email"})
}

// VerifyOTP handles POST /api/auth/verify-otp and sets the session cookie
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.authService.VerifyOTP(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.setCookie(c, token, h.cookie.MaxAge)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.authService.Logout(c.Request.Context(), middleware.CurrentUser(c), requestMeta(c))
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
