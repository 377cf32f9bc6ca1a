package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
)

func TestRespondAPIErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("operation x: %w", pkgerrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{pkgerrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("bad: %w", pkgerrors.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{pkgerrors.ErrConflict, http.StatusConflict, "conflict"},
		{pkgerrors.ErrNotConfigured, http.StatusNotImplemented, "not_configured"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "lookup_failed"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondAPIError(c, tc.err, "lookup_failed")

		if rec.Code != tc.wantStatus {
			t.Fatalf("%v: status want=%d got=%d", tc.err, tc.wantStatus, rec.Code)
		}
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if env.Error.Code != tc.wantCode {
			t.Fatalf("%v: code want=%s got=%s", tc.err, tc.wantCode, env.Error.Code)
		}
		if tc.wantStatus == http.StatusInternalServerError && env.Error.Message != "internal server error" {
			t.Fatalf("500 must not leak details: got=%q", env.Error.Message)
		}
	}
}
