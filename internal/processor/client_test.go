package processor

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/models"
)

func TestClient_GetAuthorization(t *testing.T) {
	buyerID := uuid.New()
	sellerID := uuid.New()
	eventID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orders/captured-order":
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write([]byte(`{
				"order_id": "captured-order",
				"buyer_id": "` + buyerID.String() + `",
				"seller_id": "` + sellerID.String() + `",
				"event_id": "` + eventID.String() + `",
				"amount": 500,
				"currency": "INR",
				"status": "captured"
			}`))
		case "/api/orders/broken-order":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, logger.NewNoOp())

	t.Run("captured order ok", func(t *testing.T) {
		auth, err := client.GetAuthorization(t.Context(), "captured-order")

		require.NoError(t, err)
		require.Equal(t, models.PaymentAuthorization{
			OrderID:  "captured-order",
			BuyerID:  buyerID,
			SellerID: sellerID,
			EventID:  eventID,
			Amount:   500,
			Currency: "INR",
			Status:   models.AuthorizationStatusCaptured,
		}, auth)
	})

	t.Run("unknown order fail", func(t *testing.T) {
		_, err := client.GetAuthorization(t.Context(), "no-such-order")

		require.Error(t, err)
		var procErr *ProcessorError
		require.True(t, errors.As(err, &procErr))
		require.Equal(t, CodeNotFound, procErr.Code)
	})

	t.Run("processor error fail", func(t *testing.T) {
		_, err := client.GetAuthorization(t.Context(), "broken-order")

		require.Error(t, err)
		var procErr *ProcessorError
		require.True(t, errors.As(err, &procErr))
		require.Equal(t, CodeUnknown, procErr.Code)
	})
}
