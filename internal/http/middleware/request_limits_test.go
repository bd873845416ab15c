package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestSizeLimit(t *testing.T) {
	// Downstream handler shaped like the allocate endpoint: it decodes a
	// small JSON envelope and fails when MaxBytesReader cuts the body off.
	const maxSize = 256

	handler := RequestSizeLimit(maxSize)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AccountID string `json:"accountId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	account := "0x0123456789abcdef0123456789abcdef01234567"
	base := fmt.Sprintf(`{"accountId":%q,"note":""}`, account)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "allocate-sized envelope passes",
			body:       fmt.Sprintf(`{"accountId":%q}`, account),
			wantStatus: http.StatusOK,
		},
		{
			name:       "body at exactly the cap passes",
			body:       fmt.Sprintf(`{"accountId":%q,"note":%q}`, account, strings.Repeat("x", maxSize-len(base))),
			wantStatus: http.StatusOK,
		},
		{
			name:       "padded body past the cap is rejected",
			body:       fmt.Sprintf(`{"accountId":%q,"note":%q}`, account, strings.Repeat("x", maxSize)),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/vouchers/allocate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
