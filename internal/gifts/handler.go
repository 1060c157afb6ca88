package gifts

import (
	"net/http"
	"time"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/goattech/giftflow/pkg/common"
	"github.com/goattech/giftflow/pkg/middleware"
)

// Handler handles HTTP requests for gifts
type Handler struct {
	service *Service
}

// NewHandler creates a new gift handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RouteMiddleware carries the optional per-route middleware the gift
// routes use. Nil entries are skipped.
type RouteMiddleware struct {
	Auth        gin.HandlerFunc
	VerifyLimit gin.HandlerFunc
}

// SendGift creates a gift and emails the verification code to the recipient
// POST /api/v1/gifts
func (h *Handler) SendGift(c *gin.Context) {
	var req SendGiftRequest
	if err := middleware.ValidateJSON(c, &req); err != nil {
		middleware.RespondWithValidationError(c, err)
		return
	}

	result, err := h.service.SendGift(c.Request.Context(), &req)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to create gift")
		return
	}

	common.CreatedResponse(c, result)
}

// GetGift returns the public view of a gift
// GET /api/v1/gifts/:gift_id
func (h *Handler) GetGift(c *gin.Context) {
	giftID, err := uuid.Parse(c.Param("gift_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid gift ID")
		return
	}

	info, err := h.service.GetGiftInfo(c.Request.Context(), giftID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get gift")
		return
	}

	common.SuccessResponse(c, info)
}

// VerifyGift checks the submitted verification code
// POST /api/v1/gifts/:gift_id/verify
func (h *Handler) VerifyGift(c *gin.Context) {
	giftID, err := uuid.Parse(c.Param("gift_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid gift ID")
		return
	}

	var req VerifyRequest
	if err := middleware.ValidateJSON(c, &req); err != nil {
		common.AppErrorResponse(c, NewInvalidCodeError())
		return
	}

	if err := h.service.Verify(c.Request.Context(), giftID, req.Code); err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to verify gift")
		return
	}

	common.SuccessResponse(c, gin.H{"verified": true})
}

// ClaimGift redeems a verified gift into a zero-price order
// POST /api/v1/gifts/:gift_id/claim
func (h *Handler) ClaimGift(c *gin.Context) {
	giftID, err := uuid.Parse(c.Param("gift_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid gift ID")
		return
	}

	var req ClaimRequest
	if err := middleware.ValidateJSON(c, &req); err != nil {
		middleware.RespondWithValidationError(c, err)
		return
	}

	result, err := h.service.Claim(c.Request.Context(), giftID, &req)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to claim gift")
		return
	}

	if result.AlreadyClaimed {
		common.SuccessResponse(c, result)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, result)
}

// GetSentGifts lists the gifts sent by the authenticated user
// GET /api/v1/gifts/sent
func (h *Handler) GetSentGifts(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.service.SentGifts(c.Request.Context(), userID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list sent gifts")
		return
	}

	common.SuccessResponse(c, entries)
}

// GetReceivedGifts lists the gifts addressed to an email
// GET /api/v1/gifts/received?email=...
func (h *Handler) GetReceivedGifts(c *gin.Context) {
	email := c.Query("email")

	entries, err := h.service.ReceivedGifts(c.Request.Context(), email)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list received gifts")
		return
	}

	common.SuccessResponse(c, entries)
}

// claimTimeout bounds the whole claim request. The order-collaborator
// deadline inside the service is tighter; this is the backstop for a
// slow store.
func claimTimeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusBadGateway, "claim timed out, the gift remains reserved")
		}),
	)
}

// RegisterRoutes registers gift routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mw RouteMiddleware, claimDeadline time.Duration) {
	g := rg.Group("/gifts")
	{
		g.POST("", h.SendGift)
		g.GET("/received", h.GetReceivedGifts)
		if mw.Auth != nil {
			g.GET("/sent", mw.Auth, h.GetSentGifts)
		} else {
			g.GET("/sent", h.GetSentGifts)
		}
		g.GET("/:gift_id", h.GetGift)
		if mw.VerifyLimit != nil {
			g.POST("/:gift_id/verify", mw.VerifyLimit, h.VerifyGift)
		} else {
			g.POST("/:gift_id/verify", h.VerifyGift)
		}
		g.POST("/:gift_id/claim", claimTimeout(claimDeadline), h.ClaimGift)
	}
}
