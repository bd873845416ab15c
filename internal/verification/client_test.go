package verification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckRedeemed_Definitive(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		isRedeemed bool
	}{
		{name: "redeemed", body: `{"isRedeemed": true}`, isRedeemed: true},
		{name: "not redeemed", body: `{"isRedeemed": false}`, isRedeemed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != "POST" {
					t.Errorf("method = %s, want POST", r.Method)
				}
				var req checkRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if req.VoucherID != "VCH-001" {
					t.Errorf("voucherId = %q, want %q", req.VoucherID, "VCH-001")
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(Config{Endpoint: srv.URL})
			redeemed, err := client.CheckRedeemed(context.Background(), "VCH-001")
			if err != nil {
				t.Fatalf("CheckRedeemed failed: %v", err)
			}
			if redeemed != tt.isRedeemed {
				t.Errorf("redeemed = %v, want %v", redeemed, tt.isRedeemed)
			}
		})
	}
}

func TestCheckRedeemed_Inconclusive(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			},
		},
		{
			name: "missing field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(Config{Endpoint: srv.URL})
			_, err := client.CheckRedeemed(context.Background(), "VCH-001")
			if !errors.Is(err, ErrInconclusive) {
				t.Errorf("err = %v, want ErrInconclusive", err)
			}
		})
	}
}

func TestCheckRedeemed_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"isRedeemed": false}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := client.CheckRedeemed(context.Background(), "VCH-001")
	if !errors.Is(err, ErrInconclusive) {
		t.Errorf("timeout should be inconclusive, got %v", err)
	}
}

func TestCheckRedeemed_Unreachable(t *testing.T) {
	// Port 1 is never listening.
	client := NewClient(Config{Endpoint: "http://127.0.0.1:1/check"})
	_, err := client.CheckRedeemed(context.Background(), "VCH-001")
	if !errors.Is(err, ErrInconclusive) {
		t.Errorf("connection failure should be inconclusive, got %v", err)
	}
}
