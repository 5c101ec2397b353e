package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	})

	srv := httptest.NewServer(RequestIDMiddleware()(h))
	defer srv.Close()

	t.Run("generates id when absent", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		header := resp.Header.Get("X-Request-ID")
		require.NotEmpty(t, header, "response should carry a request id")
		require.Equal(t, header, seen, "handler should see the same id as the response header")

		_, err = uuid.Parse(header)
		require.NoError(t, err, "generated id should be a uuid")
	})

	t.Run("reuses upstream id", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("X-Request-ID", "gateway-42")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, "gateway-42", resp.Header.Get("X-Request-ID"))
		require.Equal(t, "gateway-42", seen)
	})
}

func TestRequestID_EmptyContext(t *testing.T) {
	require.Empty(t, RequestID(t.Context()))
}
