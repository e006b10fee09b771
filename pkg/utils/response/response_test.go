package response_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/contextkey"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{250, 100, 3},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := response.TotalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}

func TestNewPaginated(t *testing.T) {
	env := response.NewPaginated([]string{"a"}, 2, 10, 25, "Problems retrieved successfully")
	if !env.Success || env.StatusCode != http.StatusOK {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Pagination == nil || env.Pagination.TotalPages != 3 || env.Pagination.Page != 2 {
		t.Fatalf("unexpected pagination: %+v", env.Pagination)
	}
}

func TestTimestampIsISO8601(t *testing.T) {
	restore := response.Now
	response.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC) }
	defer func() { response.Now = restore }()

	env := response.NewSuccess(nil, "", 0)
	if env.Timestamp != "2026-01-02T03:04:05.006Z" {
		t.Fatalf("unexpected timestamp: %s", env.Timestamp)
	}
	if env.Message != "Success" || env.StatusCode != 200 {
		t.Fatalf("unexpected defaults: %+v", env)
	}
}

func TestFromError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantMsg    string
	}{
		{
			name:       "not found",
			err:        pkgerrors.New(pkgerrors.ProblemNotFound),
			wantStatus: 404,
			wantError:  "NOT_FOUND",
			wantMsg:    "Problem not found",
		},
		{
			name:       "conflict",
			err:        pkgerrors.New(pkgerrors.ProblemAlreadyExists),
			wantStatus: 409,
			wantError:  "CONFLICT",
			wantMsg:    "Problem with this title already exists",
		},
		{
			name:       "database error hides driver text",
			err:        pkgerrors.Wrap(errors.New("dial tcp 10.0.0.1:27017: refused"), pkgerrors.DatabaseError),
			wantStatus: 500,
			wantError:  "INTERNAL_ERROR",
			wantMsg:    "Database operation failed",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: 500,
			wantError:  "INTERNAL_ERROR",
			wantMsg:    "Internal server error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := response.FromError(tc.err)
			if env.Success || env.StatusCode != tc.wantStatus || env.Error != tc.wantError || env.Message != tc.wantMsg {
				t.Fatalf("unexpected envelope: %+v", env)
			}
		})
	}
}

func TestFromErrorValidationListsErrors(t *testing.T) {
	env := response.FromError(pkgerrors.ValidationErrors([]string{"a", "b"}))
	if env.StatusCode != 400 || len(env.Errors) != 2 || env.Message != "a, b" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestErrorWritesTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		c.Set("trace_id", "trace-abc")
		response.Error(c, pkgerrors.New(pkgerrors.ProblemNotFound))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var env response.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.TraceID != "trace-abc" || env.Error != "NOT_FOUND" || env.StatusCode != 404 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestJSONFallsBackToRequestContextTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		response.AbortWithErrorCode(c, pkgerrors.TooManyRequests, "")
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(context.WithValue(req.Context(), contextkey.TraceID, "ctx-trace"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env response.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rec.Code != http.StatusTooManyRequests || env.TraceID != "ctx-trace" {
		t.Fatalf("unexpected response: %d %+v", rec.Code, env)
	}
	if env.Message != "Too many requests from this IP, please try again later." {
		t.Fatalf("unexpected message: %q", env.Message)
	}
}
