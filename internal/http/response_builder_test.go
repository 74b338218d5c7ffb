package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/1").
		JSON(map[string]string{"id": "1"}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("Content-Type = %q", got)
	}
	if rr.Header().Get("Location") != "/api/expenses/1" {
		t.Errorf("Location = %q", rr.Header().Get("Location"))
	}
	if strings.TrimSpace(rr.Body.String()) != `{"id":"1"}` {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
		body    string
	}{
		{"bad request", BadRequestError("nope"), 400, `{"error":"nope"}`},
		{"not found", NotFoundError("gone"), 404, `{"error":"gone"}`},
		{"internal", InternalServerError("boom"), 500, `{"error":"boom"}`},
		{"validation", ValidationErrorResponse(&ValidationError{Field: "amount", Err: errEmptyPatch}), 422,
			`{"error":"no fields to update","field":"amount"}`},
		{"escapes html", BadRequestError("<b>"), 400, `{"error":"<b>"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.builder.Write(rr)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if got := strings.TrimSpace(rr.Body.String()); got != tt.body {
				t.Errorf("body = %s, want %s", got, tt.body)
			}
		})
	}
}

func TestNoContentHasNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NoContent().Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Errorf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}
