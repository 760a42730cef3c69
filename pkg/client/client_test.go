//go:build !integration

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func jsonHandler(t *testing.T, status int, body string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}
}

func TestCreateDecodesEnvelope(t *testing.T) {
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/activation-codes" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprint(w, `{"success":true,"data":{
			"id":"id-1",
			"code":"1700000000000-abcd1234-u",
			"createdAt":"2026-01-02T15:04:05Z",
			"expiresAt":"2027-01-02T15:04:05Z",
			"isUsed":false,
			"productInfo":{"name":"Pro","version":"2.0","features":["a","b"]},
			"metadata":{"customerEmail":"dev@example.com"}
		}}`)
	}))
	defer srv.Close()

	// Trailing slash on the base URL must not produce a double slash.
	c := New(srv.URL+"/api/", WithAPIKey("secret"))
	code, err := c.Create(context.Background(), CreateRequest{ExpirationDays: 365})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotContentType)
	}
	if code.ID != "id-1" || code.ProductInfo == nil || code.ProductInfo.Name != "Pro" {
		t.Errorf("payload not decoded: %+v", code)
	}
	if email, _ := code.Metadata["customerEmail"].(string); email != "dev@example.com" {
		t.Errorf("metadata not passed through: %+v", code.Metadata)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantErr     string
	}{
		{
			name:        "400 keeps the server detail",
			status:      http.StatusBadRequest,
			body:        `{"success":false,"error":"limit must be between 1 and 100"}`,
			wantMessage: "limit must be between 1 and 100",
			wantErr:     "limit must be between 1 and 100",
		},
		{
			name:        "401 substitutes a login hint",
			status:      http.StatusUnauthorized,
			body:        `{"success":false,"error":"authentication required"}`,
			wantMessage: "authentication failed, please log in again",
			wantErr:     "authentication required",
		},
		{
			name:        "403 substitutes a permission message",
			status:      http.StatusForbidden,
			body:        `{"success":false,"error":"too many verification attempts, slow down"}`,
			wantMessage: "permission denied for this operation",
			wantErr:     "too many verification attempts, slow down",
		},
		{
			name:        "500 substitutes a retry hint",
			status:      http.StatusInternalServerError,
			body:        `{"success":false,"error":"internal error"}`,
			wantMessage: "internal server error, please retry later",
			wantErr:     "internal error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(jsonHandler(t, tc.status, tc.body))
			defer srv.Close()

			_, err := New(srv.URL).Stats(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Status != tc.status {
				t.Errorf("status not preserved: want %d, got %d", tc.status, apiErr.Status)
			}
			if apiErr.Message != tc.wantMessage {
				t.Errorf("want message %q, got %q", tc.wantMessage, apiErr.Message)
			}
			if apiErr.Err != tc.wantErr {
				t.Errorf("want raw error %q, got %q", tc.wantErr, apiErr.Err)
			}
		})
	}
}

func TestVerifyRejectionPredicates(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		match  func(error) bool
	}{
		{"already used maps to IsAlreadyUsed", http.StatusConflict, `{"success":false,"error":"activation code already used"}`, IsAlreadyUsed},
		{"expired maps to IsExpired", http.StatusGone, `{"success":false,"error":"activation code expired"}`, IsExpired},
		{"unknown code maps to IsNotFound", http.StatusNotFound, `{"success":false,"error":"activation code not found"}`, IsNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(jsonHandler(t, tc.status, tc.body))
			defer srv.Close()

			_, err := New(srv.URL).Verify(context.Background(), "some-code")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tc.match(err) {
				t.Errorf("predicate did not match %v", err)
			}
			// Each rejection matches exactly one predicate.
			matched := 0
			for _, p := range []func(error) bool{IsAlreadyUsed, IsExpired, IsNotFound} {
				if p(err) {
					matched++
				}
			}
			if matched != 1 {
				t.Errorf("expected exactly one predicate match, got %d", matched)
			}
		})
	}
}

func TestTransportFailures(t *testing.T) {
	t.Run("unreachable server yields status 0", func(t *testing.T) {
		srv := httptest.NewServer(jsonHandler(t, http.StatusOK, `{}`))
		srv.Close() // connection refused from now on

		_, err := New(srv.URL).Stats(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.Status != 0 {
			t.Errorf("transport failure must carry status 0, got %d", apiErr.Status)
		}
	})

	t.Run("non-JSON body yields status 0", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>gateway timeout</html>"))
		}))
		defer srv.Close()

		_, err := New(srv.URL).Stats(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.Status != 0 || apiErr.Err != "network error" {
			t.Errorf("unexpected error: %+v", apiErr)
		}
	})

	t.Run("envelope failure on a 200 is still an error", func(t *testing.T) {
		srv := httptest.NewServer(jsonHandler(t, http.StatusOK, `{"success":false,"error":"shard offline"}`))
		defer srv.Close()

		_, err := New(srv.URL).Stats(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.Status != http.StatusOK || apiErr.Err != "shard offline" {
			t.Errorf("unexpected error: %+v", apiErr)
		}
	})
}

func TestListSendsPaginationQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "50" || q.Get("status") != "unused" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = fmt.Fprint(w, `{"success":true,"data":{
			"codes":[{"id":"a","code":"c-a","createdAt":"2026-01-01T00:00:00Z","expiresAt":"2027-01-01T00:00:00Z","isUsed":false}],
			"pagination":{"page":2,"limit":50,"total":51,"totalPages":2,"hasNext":false,"hasPrev":true}
		}}`)
	}))
	defer srv.Close()

	list, err := New(srv.URL).List(context.Background(), 2, 50, ListUnused)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Codes) != 1 || list.Pagination.Total != 51 || !list.Pagination.HasPrev {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestDeleteReturnsConfirmation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/activation-codes/id-9" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = fmt.Fprint(w, `{"success":true,"data":{"message":"activation code deleted"}}`)
	}))
	defer srv.Close()

	msg, err := New(srv.URL).Delete(context.Background(), "id-9")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if msg != "activation code deleted" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestPreviewIsReadOnlyGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("preview must use GET, got %s", r.Method)
		}
		if r.URL.Path != "/activation-codes/cleanup-unused" || r.URL.Query().Get("minutesOld") != "15" {
			t.Errorf("unexpected request: %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = fmt.Fprint(w, `{"success":true,"data":{
			"message":"2 candidates",
			"count":2,
			"minutesOld":15,
			"cutoffTime":"2026-01-01T00:00:00Z",
			"codes":[
				{"id":"a","code":"c-a","createdAt":"2026-01-01T00:00:00Z","expiresAt":"2027-01-01T00:00:00Z","minutesSinceCreation":20},
				{"id":"b","code":"c-b","createdAt":"2026-01-01T00:00:00Z","expiresAt":"2027-01-01T00:00:00Z","minutesSinceCreation":33}
			]
		}}`)
	}))
	defer srv.Close()

	preview, err := New(srv.URL).PreviewUnusedCleanup(context.Background(), 15)
	if err != nil {
		t.Fatalf("PreviewUnusedCleanup: %v", err)
	}
	if preview.Count != 2 || len(preview.Codes) != 2 || preview.Codes[1].MinutesSinceCreation != 33 {
		t.Errorf("unexpected preview: %+v", preview)
	}
}

func TestCleanupRequestsOmitZeroThresholds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf [256]byte
		n, _ := r.Body.Read(buf[:])
		if body := string(buf[:n]); body != "{}" {
			t.Errorf("zero threshold should serialize to an empty object, got %s", body)
		}
		_, _ = fmt.Fprint(w, `{"success":true,"data":{"message":"ok","deletedCount":0}}`)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).CleanupExpired(context.Background(), 0); err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL).Stats(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 0 {
		t.Fatalf("expected a status-0 error on cancellation, got %v", err)
	}
}
