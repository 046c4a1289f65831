package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/guruhub/internal/domain/guru"
	"github.com/geocoder89/guruhub/internal/http/handlers"
	"github.com/geocoder89/guruhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindGuru(t *testing.T, body string) bindErrorResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/gurus", func(ctx *gin.Context) {
		var req guru.CreateGuruRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/gurus", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	return resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	body := `{"fullName":"Kabir","guruType":"Sufi","images":[{"url":"not a url"}]}`

	resp := bindGuru(t, body)

	wantRules := map[string]string{
		"dob":             "required",
		"birthPlace":      "required",
		"guruType":        "oneof",
		"era":             "required",
		"bio":             "required",
		"profileImageUrl": "required",
		"images[0].url":   "url",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}

	if _, ok := found["fullName"]; ok {
		t.Fatalf("fullName was valid and should not be reported")
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	resp := bindGuru(t, `{"fullName":42}`)

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "fullName" {
		t.Fatalf("expected detail field to be fullName, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type field error, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	for _, body := range []string{`{"fullName":`, `{"fullName" "x"}`} {
		resp := bindGuru(t, body)

		if resp.Error.Details.JSON != "invalid_json_syntax" {
			t.Fatalf("body %q: unexpected json detail %q", body, resp.Error.Details.JSON)
		}
	}
}

func TestBindJSON_EmptyBody(t *testing.T) {
	resp := bindGuru(t, "")

	if resp.Error.Message != "request body is required" {
		t.Fatalf("unexpected message %q", resp.Error.Message)
	}
}

func TestBindJSON_StreamedBodyOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(32))
	r.POST("/gurus", func(ctx *gin.Context) {
		var req guru.CreateGuruRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	body := `{"fullName":"` + strings.Repeat("x", 128) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/gurus", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	// unknown length, so the limit is enforced while reading
	req.ContentLength = -1

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d, want 413, body=%s", w.Code, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "payload_too_large" {
		t.Fatalf("unexpected code %q", resp.Error.Code)
	}
}
