package settlement

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/evenza/settlement/internal/models"
	"github.com/evenza/settlement/internal/repository"
	"github.com/evenza/settlement/internal/testutil"
	"github.com/evenza/settlement/tests/e2e"
)

const CaptureURL = "/api/payments/capture"

func Test_Capture(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	type request struct {
		OrderID string `json:"order_id"`
	}

	e2e.ServeInTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		buyer, err := s.Storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Name:  "buyer",
			Email: "buyer@example.com",
		})
		require.NoError(t, err)

		seller, err := s.Storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Name:  "seller",
			Email: "seller@example.com",
		})
		require.NoError(t, err)

		event, err := s.Storage.Event().CreateEvent(t.Context(), repository.CreateEventParams{
			Title:     "Go Conference",
			StartsAt:  testutil.MustParseTime(t, "2026-11-01 18:00:00Z"),
			Location:  "Berlin",
			Fee:       500,
			CreatedBy: seller.ID,
		})
		require.NoError(t, err)

		doCapture := func(t *testing.T, data request) *http.Response {
			d, err := json.Marshal(data)
			require.NoError(t, err, "failed to marshal capture request")

			resp, err := http.Post(srvURL+CaptureURL, "application/json", bytes.NewReader(d))
			require.NoError(t, err, "failed to send request")

			return resp
		}

		t.Run("capture ok then replay", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				s.Processor.SetOrder(models.PaymentAuthorization{
					OrderID:  "order-a",
					BuyerID:  buyer.ID,
					SellerID: seller.ID,
					EventID:  event.ID,
					Amount:   500,
					Currency: "INR",
					Status:   models.AuthorizationStatusCaptured,
				})

				resp := doCapture(t, request{OrderID: "order-a"})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusCreated, resp.StatusCode, "first capture should return 201. Body: %s", string(body))

				var created struct {
					ReceiptID     string `json:"receipt_id"`
					OrderID       string `json:"order_id"`
					SellerBalance string `json:"seller_balance"`
				}
				require.NoError(t, json.Unmarshal(body, &created))
				require.Equal(t, "order-a", created.OrderID)
				require.Equal(t, "5.00", created.SellerBalance)
				require.NotEmpty(t, created.ReceiptID)

				// Same order again: same receipt, no second credit
				resp2 := doCapture(t, request{OrderID: "order-a"})
				defer resp2.Body.Close() // nolint:errcheck
				body2, err := io.ReadAll(resp2.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusOK, resp2.StatusCode, "replay should return 200. Body: %s", string(body2))

				var replayed struct {
					ReceiptID     string `json:"receipt_id"`
					SellerBalance string `json:"seller_balance"`
				}
				require.NoError(t, json.Unmarshal(body2, &replayed))
				require.Equal(t, created.ReceiptID, replayed.ReceiptID, "replay should return the original receipt")
				require.Equal(t, "5.00", replayed.SellerBalance, "replay should not credit again")
			})
		})

		t.Run("unknown order fail", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				resp := doCapture(t, request{OrderID: "no-such-order"})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusNotFound, resp.StatusCode, "not expected code, body: %s", string(body))
				require.JSONEq(t, `{
					"error": "service_error",
					"message": "Unknown order"
				}`, string(body))
			})
		})

		t.Run("not captured order fail", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				s.Processor.SetOrder(models.PaymentAuthorization{
					OrderID:  "pending-order",
					BuyerID:  buyer.ID,
					SellerID: seller.ID,
					EventID:  event.ID,
					Amount:   500,
					Currency: "INR",
					Status:   "pending",
				})

				resp := doCapture(t, request{OrderID: "pending-order"})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusUnprocessableEntity, resp.StatusCode, "not expected code, body: %s", string(body))
				require.JSONEq(t, `{
					"error": "service_error",
					"message": "Payment is not captured"
				}`, string(body))
			})
		})

		t.Run("amount mismatch fail", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				s.Processor.SetOrder(models.PaymentAuthorization{
					OrderID:  "cheap-order",
					BuyerID:  buyer.ID,
					SellerID: seller.ID,
					EventID:  event.ID,
					Amount:   100,
					Currency: "INR",
					Status:   models.AuthorizationStatusCaptured,
				})

				resp := doCapture(t, request{OrderID: "cheap-order"})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusUnprocessableEntity, resp.StatusCode, "not expected code, body: %s", string(body))
			})
		})

		t.Run("self payment fail", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				s.Processor.SetOrder(models.PaymentAuthorization{
					OrderID:  "own-ticket",
					BuyerID:  seller.ID,
					SellerID: seller.ID,
					EventID:  event.ID,
					Amount:   500,
					Currency: "INR",
					Status:   models.AuthorizationStatusCaptured,
				})

				resp := doCapture(t, request{OrderID: "own-ticket"})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusUnprocessableEntity, resp.StatusCode, "not expected code, body: %s", string(body))
			})
		})

		t.Run("missing order id fail", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				resp := doCapture(t, request{})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code, body: %s", string(body))
				require.JSONEq(t, `{
					"error": "validation_failed",
					"message": "Request validation failed",
					"fields": {
						"order_id": "This field is required"
					}
				}`, string(body))
			})
		})
	})
}

func Test_CaptureFlow(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeInTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		buyer, err := s.Storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Name:  "buyer",
			Email: "buyer@example.com",
		})
		require.NoError(t, err)

		seller, err := s.Storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Name:  "seller",
			Email: "seller@example.com",
		})
		require.NoError(t, err)

		event, err := s.Storage.Event().CreateEvent(t.Context(), repository.CreateEventParams{
			Title:     "Go Conference",
			StartsAt:  testutil.MustParseTime(t, "2026-11-01 18:00:00Z"),
			Location:  "Berlin",
			Fee:       500,
			CreatedBy: seller.ID,
		})
		require.NoError(t, err)

		// Buyer purchases two tickets for the same event
		for _, orderID := range []string{"order-1", "order-2"} {
			s.Processor.SetOrder(models.PaymentAuthorization{
				OrderID:  orderID,
				BuyerID:  buyer.ID,
				SellerID: seller.ID,
				EventID:  event.ID,
				Amount:   500,
				Currency: "INR",
				Status:   models.AuthorizationStatusCaptured,
			})

			d, err := json.Marshal(map[string]string{"order_id": orderID})
			require.NoError(t, err)

			resp, err := http.Post(srvURL+CaptureURL, "application/json", bytes.NewReader(d))
			require.NoError(t, err)
			resp.Body.Close() // nolint:errcheck
			require.Equal(t, http.StatusCreated, resp.StatusCode)
		}

		t.Run("buyer sees grouped tickets", func(t *testing.T) {
			resp, err := http.Get(srvURL + "/api/users/" + buyer.ID.String() + "/tickets")
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code, body: %s", string(body))

			var tickets []struct {
				EventTitle string `json:"event_title"`
				Quantity   int64  `json:"quantity"`
				AmountPaid int64  `json:"amount_paid"`
				Display    string `json:"display"`
			}
			require.NoError(t, json.Unmarshal(body, &tickets))
			require.Len(t, tickets, 1, "two purchases of one event should collapse into one group")
			require.Equal(t, "Go Conference", tickets[0].EventTitle)
			require.Equal(t, int64(2), tickets[0].Quantity)
			require.Equal(t, int64(1000), tickets[0].AmountPaid)
			require.Equal(t, "10.00", tickets[0].Display)
		})

		t.Run("buyer sees receipts", func(t *testing.T) {
			resp, err := http.Get(srvURL + "/api/users/" + buyer.ID.String() + "/receipts")
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			require.Equal(t, http.StatusOK, resp.StatusCode)

			var receipts []struct {
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			}
			require.NoError(t, json.Unmarshal(body, &receipts))
			require.Len(t, receipts, 2)
		})

		t.Run("buyer sees payment history", func(t *testing.T) {
			resp, err := http.Get(srvURL + "/api/users/" + buyer.ID.String() + "/payments")
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			require.Equal(t, http.StatusOK, resp.StatusCode)

			var payments []struct {
				ToUser    string `json:"to_user"`
				EventName string `json:"event_name"`
				Amount    int64  `json:"amount"`
			}
			require.NoError(t, json.Unmarshal(body, &payments))
			require.Len(t, payments, 2)
			require.Equal(t, seller.ID.String(), payments[0].ToUser)
			require.Equal(t, "Go Conference", payments[0].EventName)
		})

		t.Run("seller wallet holds both settlements", func(t *testing.T) {
			resp, err := http.Get(srvURL + "/api/users/" + seller.ID.String() + "/wallet")
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			require.Equal(t, http.StatusOK, resp.StatusCode)

			var w struct {
				Balance        int64  `json:"balance"`
				BalanceDisplay string `json:"balance_display"`
				History        []struct {
					Type   string `json:"type"`
					Amount int64  `json:"amount"`
				} `json:"history"`
			}
			require.NoError(t, json.Unmarshal(body, &w))
			require.Equal(t, int64(1000), w.Balance)
			require.Equal(t, "10.00", w.BalanceDisplay)
			require.Len(t, w.History, 2)
		})
	})
}
