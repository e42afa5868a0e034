package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestParseTemplateID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name      string
		pathValue string
		wantOK    bool
	}{
		{"valid UUID", uuid.NewString(), true},
		{"invalid UUID", "not-a-uuid", false},
		{"empty", "", false},
		{"truncated UUID", "123e4567-e89b-12d3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/templates/x", nil)
			req.SetPathValue("tid", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseTemplateID(rec, req, logger)
			if ok != tt.wantOK {
				t.Fatalf("ParseTemplateID() ok = %v, want %v", ok, tt.wantOK)
			}

			if !tt.wantOK {
				if id != uuid.Nil {
					t.Errorf("ParseTemplateID() id = %v, want uuid.Nil", id)
				}
				if rec.Code != http.StatusBadRequest {
					t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
				}
				var resp map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("error response is not JSON: %v", err)
				}
				if resp["error"] != "invalid_template_id" {
					t.Errorf("error code = %q, want %q", resp["error"], "invalid_template_id")
				}
				return
			}

			if id.String() != tt.pathValue {
				t.Errorf("ParseTemplateID() id = %v, want %v", id, tt.pathValue)
			}
		})
	}
}
