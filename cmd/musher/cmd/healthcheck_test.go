package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		responseBody interface{}
		expectError  bool
	}{
		{
			name:         "healthy server",
			statusCode:   http.StatusOK,
			responseBody: HealthResponse{Status: "healthy"},
			expectError:  false,
		},
		{
			name:       "degraded server",
			statusCode: http.StatusOK,
			responseBody: HealthResponse{
				Status: "degraded",
				Checks: map[string]interface{}{"cache": map[string]string{"status": "warn"}},
			},
			expectError: true,
		},
		{
			name:         "unhealthy server (503)",
			statusCode:   http.StatusServiceUnavailable,
			responseBody: HealthResponse{Status: "unhealthy"},
			expectError:  true,
		},
		{
			name:         "invalid response",
			statusCode:   http.StatusOK,
			responseBody: "not json",
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if str, ok := tt.responseBody.(string); ok {
					fmt.Fprint(w, str)
				} else {
					_ = json.NewEncoder(w).Encode(tt.responseBody)
				}
			}))
			defer server.Close()

			err := checkHealth(context.Background(), server.URL, 2*time.Second)

			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCheckHealth_Unreachable(t *testing.T) {
	err := checkHealth(context.Background(), "http://127.0.0.1:1/health", 500*time.Millisecond)
	if err == nil {
		t.Error("expected error for unreachable server")
	}
}
