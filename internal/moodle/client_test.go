package moodle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient creates a client against a test server with a zero backoff
// delay so retry tests run fast
func newTestClient(serverURL string) *Client {
	return NewClient(serverURL, "test-token", WithRetryDelay(0))
}

func TestClientCall_RequestShape(t *testing.T) {
	var gotQuery url.Values
	var gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotBody = r.PostForm.Encode()

		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/webservice/rest/server.php" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		w.Write([]byte(`{"courses":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL + "/")

	params := url.Values{"courseid": {"7"}}
	var resp coursesResponse
	if err := client.Call(context.Background(), "core_course_get_courses_by_field", params, &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery.Get("wstoken") != "test-token" {
		t.Errorf("expected wstoken in query, got %q", gotQuery.Get("wstoken"))
	}
	if gotQuery.Get("wsfunction") != "core_course_get_courses_by_field" {
		t.Errorf("expected wsfunction in query, got %q", gotQuery.Get("wsfunction"))
	}
	if gotQuery.Get("moodlewsrestformat") != "json" {
		t.Errorf("expected moodlewsrestformat=json, got %q", gotQuery.Get("moodlewsrestformat"))
	}
	if gotBody != "courseid=7" {
		t.Errorf("expected form body courseid=7, got %q", gotBody)
	}
}

func TestClientCall_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"courses":[{"id":1,"fullname":"Intro","shortname":"intro","categoryid":2}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var resp coursesResponse
	if err := client.Call(context.Background(), "core_course_get_courses_by_field", nil, &resp); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}

	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if len(resp.Courses) != 1 || resp.Courses[0].FullName != "Intro" {
		t.Errorf("unexpected decoded response: %+v", resp)
	}
}

func TestClientCall_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.Call(context.Background(), "core_enrol_get_enrolled_users", nil, nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	if got := calls.Load(); got != DefaultRetries {
		t.Errorf("expected %d attempts, got %d", DefaultRetries, got)
	}
}

func TestClientCall_ApplicationException(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"exception":"moodle_exception","message":"Invalid token","errorcode":"invalidtoken"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.Call(context.Background(), "core_course_get_contents", nil, nil)
	if err == nil {
		t.Fatal("expected error for exception payload")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.ErrorCode != "invalidtoken" {
		t.Errorf("expected errorcode invalidtoken, got %q", apiErr.ErrorCode)
	}
	if apiErr.Message != "Invalid token" {
		t.Errorf("expected message carried through, got %q", apiErr.Message)
	}
}

func TestClientCall_ArrayResponseIsNotException(t *testing.T) {
	// Several functions return JSON arrays; the exception probe must not
	// reject those
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":5,"fullname":"Ada"}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var users []User
	if err := client.Call(context.Background(), "core_enrol_get_enrolled_users", nil, &users); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 || users[0].ID != 5 {
		t.Errorf("unexpected users: %+v", users)
	}
}

func TestClientCall_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", WithRetryDelay(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := client.Call(ctx, "core_course_get_contents", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation did not interrupt backoff, took %v", elapsed)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline error, got %v", err)
	}
}

func TestNewClient_Options(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		wantRetries int
		wantTimeout time.Duration
	}{
		{
			name:        "defaults",
			opts:        nil,
			wantRetries: DefaultRetries,
			wantTimeout: DefaultTimeout,
		},
		{
			name:        "custom retries and timeout",
			opts:        []Option{WithRetries(5), WithTimeout(10 * time.Second)},
			wantRetries: 5,
			wantTimeout: 10 * time.Second,
		},
		{
			name:        "invalid values ignored",
			opts:        []Option{WithRetries(0), WithTimeout(-1)},
			wantRetries: DefaultRetries,
			wantTimeout: DefaultTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient("https://lms.example.com/", "tok", tt.opts...)

			if client.retries != tt.wantRetries {
				t.Errorf("expected %d retries, got %d", tt.wantRetries, client.retries)
			}
			if client.httpClient.Timeout != tt.wantTimeout {
				t.Errorf("expected timeout %v, got %v", tt.wantTimeout, client.httpClient.Timeout)
			}
			if client.BaseURL() != "https://lms.example.com" {
				t.Errorf("expected trailing slash trimmed, got %q", client.BaseURL())
			}
		})
	}
}
