package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/http/middleware"
	"github.com/ignatzorin/household-backend/internal/logger"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
	"github.com/ignatzorin/household-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Discard()
}

type mockLifecycle struct {
	mock.Mock
}

func (m *mockLifecycle) request(args mock.Arguments) (*models.ServiceRequest, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *mockLifecycle) CreatePrivateRequest(ctx context.Context, actor service.Actor, in service.CreatePrivateRequestInput) (*models.ServiceRequest, error) {
	return m.request(m.Called(ctx, actor, in))
}

func (m *mockLifecycle) CreateOpenRequest(ctx context.Context, actor service.Actor, serviceID uuid.UUID, description *string) (*models.ServiceRequest, error) {
	return m.request(m.Called(ctx, actor, serviceID, description))
}

func (m *mockLifecycle) SubmitBid(ctx context.Context, actor service.Actor, openRequestID uuid.UUID, description *string) (*models.ServiceRequest, error) {
	return m.request(m.Called(ctx, actor, openRequestID, description))
}

func (m *mockLifecycle) AcceptRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID) (*models.ServiceRequest, error) {
	return m.request(m.Called(ctx, actor, requestID))
}

func (m *mockLifecycle) RejectRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID) (*models.ServiceRequest, error) {
	return m.request(m.Called(ctx, actor, requestID))
}

func (m *mockLifecycle) AcceptBid(ctx context.Context, actor service.Actor, bidID uuid.UUID) (*models.ServiceRequest, error) {
	return m.request(m.Called(ctx, actor, bidID))
}

func (m *mockLifecycle) RejectBid(ctx context.Context, actor service.Actor, bidID uuid.UUID) error {
	return m.Called(ctx, actor, bidID).Error(0)
}

func (m *mockLifecycle) CloseRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID, in service.CloseRequestInput) (*models.ServiceRequest, error) {
	return m.request(m.Called(ctx, actor, requestID, in))
}

func (m *mockLifecycle) DeleteRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID) error {
	return m.Called(ctx, actor, requestID).Error(0)
}

func (m *mockLifecycle) EditRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID, description *string) (*models.ServiceRequest, error) {
	return m.request(m.Called(ctx, actor, requestID, description))
}

func (m *mockLifecycle) GetRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID) (*models.ServiceRequest, error) {
	return m.request(m.Called(ctx, actor, requestID))
}

func (m *mockLifecycle) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetails, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.RequestDetails), args.Error(1)
}

func (m *mockLifecycle) OpenRequestsForProfessional(ctx context.Context, actor service.Actor) (*service.OpenRequestsView, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OpenRequestsView), args.Error(1)
}

func (m *mockLifecycle) BidsForCustomer(ctx context.Context, actor service.Actor) ([]models.RequestDetails, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]models.RequestDetails), args.Error(1)
}

// withActor подставляет пользователя так же, как AuthMiddleware.
func withActor(actor service.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, actor.ID)
		c.Set(middleware.ContextRoleKey, actor.Role)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRequestHandler_Unauthorized(t *testing.T) {
	r := gin.New()
	h := NewRequestHandler(nil)
	r.POST("/customer/bids/:id/accept", h.AcceptBid)

	w := doJSON(r, http.MethodPost, "/customer/bids/"+uuid.NewString()+"/accept", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandler_InvalidID(t *testing.T) {
	customer := service.NewActor(uuid.New(), valueobject.RoleCustomer)
	r := gin.New()
	h := NewRequestHandler(nil)
	r.POST("/customer/bids/:id/accept", withActor(customer), h.AcceptBid)

	w := doJSON(r, http.MethodPost, "/customer/bids/not-a-uuid/accept", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandler_AcceptBid(t *testing.T) {
	customer := service.NewActor(uuid.New(), valueobject.RoleCustomer)
	bidID := uuid.New()
	lifecycle := new(mockLifecycle)
	lifecycle.On("AcceptBid", mock.Anything, customer, bidID).
		Return(&models.ServiceRequest{ID: bidID, Status: valueobject.RequestStatusAccepted}, nil)

	r := gin.New()
	h := NewRequestHandler(lifecycle)
	r.POST("/customer/bids/:id/accept", withActor(customer), h.AcceptBid)

	w := doJSON(r, http.MethodPost, "/customer/bids/"+bidID.String()+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	assert.True(t, env.Success)
	var data struct {
		Action  string `json:"action"`
		Request struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		} `json:"request"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "accepted", data.Action)
	assert.Equal(t, bidID, data.Request.ID)
	assert.Equal(t, "accepted", data.Request.Status)
	lifecycle.AssertExpectations(t)
}

func TestRequestHandler_ErrorMapping(t *testing.T) {
	customer := service.NewActor(uuid.New(), valueobject.RoleCustomer)
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"устаревшая версия", apperror.ErrStaleRequest, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"не найдена", apperror.ErrRequestNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"чужая заявка", apperror.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"неверный статус", apperror.New(apperror.ErrCodeInvalidState, "заявка не принята"), http.StatusConflict, "INVALID_STATE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := uuid.New()
			lifecycle := new(mockLifecycle)
			lifecycle.On("CloseRequest", mock.Anything, customer, id, mock.Anything).Return(nil, tc.err)

			r := gin.New()
			h := NewRequestHandler(lifecycle)
			r.POST("/customer/requests/:id/close", withActor(customer), h.Close)

			w := doJSON(r, http.MethodPost, "/customer/requests/"+id.String()+"/close", map[string]any{"rating": 4})
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decode(t, w).Error.Code)
		})
	}
}

func TestRequestHandler_CloseRequiresRating(t *testing.T) {
	customer := service.NewActor(uuid.New(), valueobject.RoleCustomer)
	lifecycle := new(mockLifecycle)

	r := gin.New()
	h := NewRequestHandler(lifecycle)
	r.POST("/customer/requests/:id/close", withActor(customer), h.Close)

	w := doJSON(r, http.MethodPost, "/customer/requests/"+uuid.NewString()+"/close", map[string]any{"feedback": "ok"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	lifecycle.AssertNotCalled(t, "CloseRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestHandler_CloseForwardsInput(t *testing.T) {
	customer := service.NewActor(uuid.New(), valueobject.RoleCustomer)
	id := uuid.New()
	feedback := "отлично"
	lifecycle := new(mockLifecycle)
	lifecycle.On("CloseRequest", mock.Anything, customer, id, service.CloseRequestInput{Rating: 4.5, Feedback: &feedback}).
		Return(&models.ServiceRequest{ID: id, Status: valueobject.RequestStatusClosed}, nil)

	r := gin.New()
	h := NewRequestHandler(lifecycle)
	r.POST("/customer/requests/:id/close", withActor(customer), h.Close)

	w := doJSON(r, http.MethodPost, "/customer/requests/"+id.String()+"/close", map[string]any{"rating": 4.5, "feedback": feedback})
	assert.Equal(t, http.StatusOK, w.Code)
	lifecycle.AssertExpectations(t)
}

func TestRequestHandler_SubmitBidWithoutBody(t *testing.T) {
	professional := service.NewActor(uuid.New(), valueobject.RoleProfessional)
	openID := uuid.New()
	lifecycle := new(mockLifecycle)
	lifecycle.On("SubmitBid", mock.Anything, professional, openID, (*string)(nil)).
		Return(&models.ServiceRequest{ID: uuid.New()}, nil)

	r := gin.New()
	h := NewRequestHandler(lifecycle)
	r.POST("/professional/open-requests/:id/bid", withActor(professional), h.SubmitBid)

	req := httptest.NewRequest(http.MethodPost, "/professional/open-requests/"+openID.String()+"/bid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	lifecycle.AssertExpectations(t)
}

func TestRequestHandler_ListScopesCustomer(t *testing.T) {
	customer := service.NewActor(uuid.New(), valueobject.RoleCustomer)
	lifecycle := new(mockLifecycle)
	lifecycle.On("ListRequests", mock.Anything, mock.MatchedBy(func(f models.RequestFilter) bool {
		return f.CustomerID != nil && *f.CustomerID == customer.ID &&
			f.Status != nil && *f.Status == valueobject.RequestStatusClosed
	})).Return([]models.RequestDetails{}, nil)

	r := gin.New()
	h := NewRequestHandler(lifecycle)
	r.GET("/customer/requests", withActor(customer), h.List)

	w := doJSON(r, http.MethodGet, "/customer/requests?status=closed", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/customer/requests?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	lifecycle.AssertNumberOfCalls(t, "ListRequests", 1)
}
