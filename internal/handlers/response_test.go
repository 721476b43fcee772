package handlers

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/habitflow-backend/internal/apierr"
)

func respondErrorBody(t *testing.T, err error) (int, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondError(c, err)
	return rec.Code, rec.Body.String()
}

func TestRespondErrorHidesInternalDetailInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	status, body := respondErrorBody(t, apierr.Internal(fmt.Errorf("pq: connection refused")))
	if status != 500 {
		t.Fatalf("status = %d, want 500", status)
	}
	if strings.Contains(body, "connection refused") {
		t.Errorf("internal detail leaked in production: %s", body)
	}
	if !strings.Contains(body, "internal server error") || !strings.Contains(body, apierr.CodeInternal) {
		t.Errorf("stable message/code missing: %s", body)
	}
}

func TestRespondErrorShowsDetailInDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	_, body := respondErrorBody(t, apierr.Internal(fmt.Errorf("pq: connection refused")))
	if !strings.Contains(body, "connection refused") {
		t.Errorf("dev mode swallowed the wrapped detail: %s", body)
	}
}

func TestRespondErrorClientErrorsAlwaysCarryMessage(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	status, body := respondErrorBody(t, apierr.NotFound(fmt.Errorf("habit not found")))
	if status != 404 {
		t.Fatalf("status = %d, want 404", status)
	}
	if !strings.Contains(body, "habit not found") || !strings.Contains(body, apierr.CodeNotFound) {
		t.Errorf("client error body = %s, want message and code", body)
	}
}
