package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perkstore/perkstore/internal/auth"
	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/service/order"
)

type mockOrderService struct {
	created   *domain.Order
	createErr error
	gotItems  []order.ItemRequest
}

func (m *mockOrderService) CreateOrder(_ context.Context, userID uuid.UUID, items []order.ItemRequest) (*domain.Order, error) {
	m.gotItems = items
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.created == nil {
		m.created = &domain.Order{
			ID:           uuid.New(),
			UserID:       userID,
			Status:       domain.OrderStatusPending,
			TotalCredits: decimal.NewFromInt(150),
		}
	}
	return m.created, nil
}

func (m *mockOrderService) GetOrderForUser(_ context.Context, orderID, _ uuid.UUID, _ bool) (*domain.Order, error) {
	if m.created == nil || m.created.ID != orderID {
		return nil, domain.ErrOrderNotFound
	}
	return m.created, nil
}

func (m *mockOrderService) ListOrders(_ context.Context, _ uuid.UUID, _, _ int) ([]domain.Order, error) {
	if m.created == nil {
		return nil, nil
	}
	return []domain.Order{*m.created}, nil
}

func authedRequest(method, target, body string, id auth.Identity) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(auth.ContextWithIdentity(req.Context(), id))
}

func TestCreateOrderHandler(t *testing.T) {
	userID := uuid.New()
	variantID := uuid.New()
	identity := auth.Identity{UserID: userID, Role: domain.RoleEmployee}

	validBody := fmt.Sprintf(`{"items":[{"variant_id":%q,"quantity":3}]}`, variantID)

	tests := []struct {
		name       string
		body       string
		svcErr     error
		noIdentity bool
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid order",
			body:       validBody,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing identity",
			body:       validBody,
			noIdentity: true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "MISSING_TOKEN",
		},
		{
			name:       "invalid JSON",
			body:       "not-json",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "no items",
			body:       `{"items":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "bad variant id",
			body:       `{"items":[{"variant_id":"nope","quantity":1}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "zero quantity",
			body:       fmt.Sprintf(`{"items":[{"variant_id":%q,"quantity":0}]}`, variantID),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "insufficient credits",
			body:       validBody,
			svcErr:     fmt.Errorf("CreateOrder: %w", domain.ErrInsufficientCredits),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INSUFFICIENT_CREDITS",
		},
		{
			name:       "insufficient stock",
			body:       validBody,
			svcErr:     fmt.Errorf("CreateOrder: %w", domain.ErrInsufficientStock),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INSUFFICIENT_STOCK",
		},
		{
			name:       "unknown variant",
			body:       validBody,
			svcErr:     fmt.Errorf("CreateOrder: %w", domain.ErrVariantNotFound),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VARIANT_NOT_FOUND",
		},
		{
			name:       "invariant violation maps to 500",
			body:       validBody,
			svcErr:     fmt.Errorf("CreateOrder: %w", domain.ErrReservationUnderflow),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{createErr: tc.svcErr}
			h := NewOrderHandler(svc)

			var req *http.Request
			if tc.noIdentity {
				req = httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tc.body))
			} else {
				req = authedRequest(http.MethodPost, "/orders", tc.body, identity)
			}
			rr := httptest.NewRecorder()

			h.Create(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

			if tc.wantCode == "" {
				assert.True(t, resp.Success)
				assert.Contains(t, rr.Header().Get("Location"), "/orders/")
			} else {
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestCreateOrderHandler_PassesItemsThrough(t *testing.T) {
	userID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	svc := &mockOrderService{}
	h := NewOrderHandler(svc)

	body := fmt.Sprintf(
		`{"items":[{"variant_id":%q,"quantity":2},{"variant_id":%q,"quantity":1}]}`,
		first, second,
	)
	req := authedRequest(http.MethodPost, "/orders", body,
		auth.Identity{UserID: userID, Role: domain.RoleEmployee})
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, svc.gotItems, 2)
	assert.Equal(t, order.ItemRequest{VariantID: first, Quantity: 2}, svc.gotItems[0])
	assert.Equal(t, order.ItemRequest{VariantID: second, Quantity: 1}, svc.gotItems[1])
}

func TestGetOrderHandler_CloakedAsNotFound(t *testing.T) {
	svc := &mockOrderService{}
	h := NewOrderHandler(svc)

	req := authedRequest(http.MethodGet, "/orders/"+uuid.NewString(), "",
		auth.Identity{UserID: uuid.New(), Role: domain.RoleEmployee})
	req.SetPathValue("id", uuid.NewString())
	rr := httptest.NewRecorder()

	h.Get(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RESOURCE_NOT_FOUND", resp.Error.Code)
}
