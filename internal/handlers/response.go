package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printhub/printhub-backend/internal/location"
	"github.com/printhub/printhub-backend/internal/middleware"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/services"
	"github.com/printhub/printhub-backend/internal/utils"
	"github.com/printhub/printhub-backend/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// errorStatus lists the domain errors with a fixed HTTP status. Anything else is a 500.
var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrNotFound, http.StatusNotFound},
	{location.ErrUnknownCountry, http.StatusNotFound},
	{location.ErrUnknownState, http.StatusNotFound},
	{services.ErrEmailTaken, http.StatusConflict},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrOTPInvalid, http.StatusUnauthorized},
	{services.ErrAccountPending, http.StatusForbidden},
	{services.ErrOTPLocked, http.StatusTooManyRequests},
	{services.ErrOTPExpired, http.StatusBadRequest},
	{services.ErrInvalidInput, http.StatusBadRequest},
	{services.ErrVisitingCardRequired, http.StatusBadRequest},
	{services.ErrInvalidUpload, http.StatusBadRequest},
	{services.ErrSelfAction, http.StatusBadRequest},
	{services.ErrInsufficientStock, http.StatusBadRequest},
	{services.ErrInvalidTransition, http.StatusBadRequest},
	{services.ErrOrderProcessed, http.StatusBadRequest},
	{services.ErrSubscriptionProcessed, http.StatusBadRequest},
	{services.ErrNotRefundable, http.StatusBadRequest},
	{services.ErrInvalidSignature, http.StatusBadRequest},
	{services.ErrUnknownPlan, http.StatusBadRequest},
}

// respondError maps err to a status and writes {"error": message}.
// Unexpected errors are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		return
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": err.Error()})
			return
		}
	}

	_ = c.Error(err)
	middleware.Logger(c, nil).Error("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// bindJSON decodes the body into req and validates it, answering 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := validation.Struct(req); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// paramID parses an ObjectID path parameter, answering 400 when malformed
func paramID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func pagination(c *gin.Context) (int, int) {
	return utils.ParsePagination(c.Query("page"), c.Query("limit"))
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

// actorID is the id of the signed-in user, or the zero id
func actorID(c *gin.Context) primitive.ObjectID {
	if user := middleware.CurrentUser(c); user != nil {
		return user.ID
	}
	return primitive.NilObjectID
}

// parseDateRange reads the from/to query parameters as RFC 3339 timestamps or plain dates.
// A plain to-date covers that whole day.
func parseDateRange(c *gin.Context) (from, to *time.Time, ok bool) {
	parse := func(name string, endOfDay bool) (*time.Time, bool) {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			return nil, true
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t, true
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " date, use YYYY-MM-DD or RFC 3339"})
			return nil, false
		}
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, true
	}

	if from, ok = parse("from", false); !ok {
		return nil, nil, false
	}
	if to, ok = parse("to", true); !ok {
		return nil, nil, false
	}
	if from != nil && to != nil && to.Before(*from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return nil, nil, false
	}
	return from, to, true
}
