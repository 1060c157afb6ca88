package gifts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(store *memStore, creator *stubOrderCreator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(newTestService(store, creator))
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, RouteMiddleware{}, 5*time.Second)
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestGetGift_NotFoundStatus(t *testing.T) {
	router := newTestRouter(newMemStore(), &stubOrderCreator{})

	w := doJSON(router, http.MethodGet, "/api/v1/gifts/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, errorCode(t, w))
}

func TestGetGift_InvalidID(t *testing.T) {
	router := newTestRouter(newMemStore(), &stubOrderCreator{})

	w := doJSON(router, http.MethodGet, "/api/v1/gifts/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGift_NeverExposesVerificationCode(t *testing.T) {
	g := pendingGift("123456")
	router := newTestRouter(newMemStore(g), &stubOrderCreator{})

	w := doJSON(router, http.MethodGet, "/api/v1/gifts/"+g.GiftID.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "123456")
	assert.NotContains(t, w.Body.String(), "verification_code")
	assert.NotContains(t, w.Body.String(), "attempt_count")
}

func TestVerifyGift_StatusMapping(t *testing.T) {
	expired := pendingGift("123456")
	expired.ExpiresAt = time.Now().Add(-time.Hour)

	lockedOut := pendingGift("123456")
	lockedOut.AttemptCount = 5

	tests := []struct {
		name     string
		gift     *Gift
		code     string
		wantHTTP int
		wantCode string
	}{
		{"wrong code", pendingGift("123456"), "000000", http.StatusBadRequest, CodeInvalidCode},
		{"expired gift", expired, "123456", http.StatusGone, CodeExpired},
		{"locked out", lockedOut, "123456", http.StatusConflict, CodeLockedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(newMemStore(tt.gift), &stubOrderCreator{})

			w := doJSON(router, http.MethodPost,
				fmt.Sprintf("/api/v1/gifts/%s/verify", tt.gift.GiftID), VerifyRequest{Code: tt.code})

			assert.Equal(t, tt.wantHTTP, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestVerifyGift_Success(t *testing.T) {
	g := pendingGift("123456")
	router := newTestRouter(newMemStore(g), &stubOrderCreator{})

	w := doJSON(router, http.MethodPost,
		fmt.Sprintf("/api/v1/gifts/%s/verify", g.GiftID), VerifyRequest{Code: "123456"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVerifyGift_UnknownGift(t *testing.T) {
	router := newTestRouter(newMemStore(), &stubOrderCreator{})

	w := doJSON(router, http.MethodPost,
		fmt.Sprintf("/api/v1/gifts/%s/verify", uuid.New()), VerifyRequest{Code: "123456"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyGift_MalformedCode(t *testing.T) {
	g := pendingGift("123456")
	router := newTestRouter(newMemStore(g), &stubOrderCreator{})

	w := doJSON(router, http.MethodPost,
		fmt.Sprintf("/api/v1/gifts/%s/verify", g.GiftID), gin.H{"code": "abc"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidCode, errorCode(t, w))
}

func TestClaimGift_StatusMapping(t *testing.T) {
	pending := pendingGift("123456")

	expired := verifiedGift("123456")
	expired.ExpiresAt = time.Now().Add(-time.Hour)

	claimedNoOrder := verifiedGift("123456")
	claimedNoOrder.Status = StatusClaimed

	tests := []struct {
		name     string
		gift     *Gift
		wantHTTP int
		wantCode string
	}{
		{"not verified", pending, http.StatusPreconditionFailed, CodeNotVerified},
		{"expired", expired, http.StatusGone, CodeExpired},
		{"claimed without order", claimedNoOrder, http.StatusConflict, CodeAlreadyClaimed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(newMemStore(tt.gift), &stubOrderCreator{})

			w := doJSON(router, http.MethodPost,
				fmt.Sprintf("/api/v1/gifts/%s/claim", tt.gift.GiftID), claimReq())

			assert.Equal(t, tt.wantHTTP, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestClaimGift_SuccessThenRetry(t *testing.T) {
	g := verifiedGift("123456")
	store := newMemStore(g)
	router := newTestRouter(store, &stubOrderCreator{nextID: 700})
	path := fmt.Sprintf("/api/v1/gifts/%s/claim", g.GiftID)

	w := doJSON(router, http.MethodPost, path, claimReq())
	require.Equal(t, http.StatusCreated, w.Code)

	var first struct {
		Data ClaimResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = doJSON(router, http.MethodPost, path, claimReq())
	require.Equal(t, http.StatusOK, w.Code)

	var second struct {
		Data ClaimResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, first.Data.OrderID, second.Data.OrderID)
	assert.True(t, second.Data.AlreadyClaimed)
}

func TestClaimGift_MissingShippingDetails(t *testing.T) {
	g := verifiedGift("123456")
	router := newTestRouter(newMemStore(g), &stubOrderCreator{})

	w := doJSON(router, http.MethodPost,
		fmt.Sprintf("/api/v1/gifts/%s/claim", g.GiftID), gin.H{"address": "somewhere"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimGift_DependencyTimeout(t *testing.T) {
	g := verifiedGift("123456")
	router := newTestRouter(newMemStore(g), &stubOrderCreator{block: true})

	w := doJSON(router, http.MethodPost,
		fmt.Sprintf("/api/v1/gifts/%s/claim", g.GiftID), claimReq())

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, CodeDependencyTimeout, errorCode(t, w))
}

func TestSendGift_Created(t *testing.T) {
	store := newMemStore()
	router := newTestRouter(store, &stubOrderCreator{})

	w := doJSON(router, http.MethodPost, "/api/v1/gifts", SendGiftRequest{
		SenderName:     "Alice",
		SenderEmail:    "alice@example.com",
		RecipientName:  "Bob",
		RecipientEmail: "bob@example.com",
		ProductID:      42,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "verification_code")
}

func TestSendGift_InvalidBody(t *testing.T) {
	router := newTestRouter(newMemStore(), &stubOrderCreator{})

	w := doJSON(router, http.MethodPost, "/api/v1/gifts", gin.H{"sender_name": "Alice"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimTimeout_SlowHandlerGetsBadGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/claim", claimTimeout(20*time.Millisecond), func(c *gin.Context) {
		time.Sleep(200 * time.Millisecond)
		c.Status(http.StatusCreated)
	})

	w := doJSON(router, http.MethodPost, "/claim", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "remains reserved")
}

func TestClaimTimeout_FastHandlerPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/claim", claimTimeout(time.Second), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := doJSON(router, http.MethodPost, "/claim", nil)

	assert.Equal(t, http.StatusCreated, w.Code)
}
