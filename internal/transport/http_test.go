package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	settings := Settings{
		HandlerURL: func(name string) string { return srv.URL + "/handler/" + name },
		Timeout:    2 * time.Second,
	}
	return NewHTTPClient(settings, WithRequestID(func() string { return "req-1" }))
}

func TestSubmitResponseSuccess(t *testing.T) {
	var got submitRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/handler/submit_project_part" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") != "req-1" {
			t.Errorf("missing request id header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`[true, "Create new project part"]`))
	})
	if err := client.SubmitResponse(context.Background(), "Good answer", 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Submission != "Good answer" || got.Order != 1 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestSubmitResponseMapsFailureShapes(t *testing.T) {
	cases := []struct {
		body string
		code string
		msg  string
	}{
		{body: `[false, "ENOMULTI", "Multiple submissions are not allowed."]`, code: CodeNoMulti, msg: "Multiple submissions are not allowed."},
		{body: `[false, "Cannot submit in preview."]`, msg: "Cannot submit in preview."},
		{body: `[false]`},
		{body: `[false, 42, "Multiple submissions are not allowed."]`, msg: msgUnexpectedFormat},
		{body: `[false, {"msg": "nope"}]`, msg: msgUnexpectedFormat},
	}
	for _, tc := range cases {
		body := tc.body
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		err := client.SubmitResponse(context.Background(), "x", 1)
		terr, ok := AsError(err)
		if !ok {
			t.Fatalf("%s: expected *Error, got %v", body, err)
		}
		if terr.Code != tc.code || terr.Message != tc.msg {
			t.Fatalf("%s: got code=%q msg=%q", body, terr.Code, terr.Message)
		}
	}
}

func TestSubmitResponseServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	err := client.SubmitResponse(context.Background(), "x", 1)
	if terr, ok := AsError(err); !ok || terr.Message != msgSubmitFailed {
		t.Fatalf("expected generic submit failure, got %v", err)
	}
	if IsCode(err, CodeNoMulti) {
		t.Fatalf("server errors must not look like duplicates")
	}
}

func TestSubmitAssessment(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got["overall_feedback"] == "bad" {
			_, _ = w.Write([]byte(`{"success": false, "msg": "Your group assessment could not be submitted."}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "msg": ""}`))
	})
	a := Assessment{SelectedOptions: map[string]string{"Ideas": "Good"}, OverallFeedback: "ok"}
	if err := client.SubmitAssessment(context.Background(), a); err != nil {
		t.Fatalf("assess: %v", err)
	}
	if _, ok := got["criterion_feedback"].(map[string]any); !ok {
		t.Fatalf("criterion_feedback must always be sent as an object: %v", got)
	}
	a.OverallFeedback = "bad"
	err := client.SubmitAssessment(context.Background(), a)
	if terr, ok := AsError(err); !ok || terr.Message != "Your group assessment could not be submitted." {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRenderReturnsMarkupAndLoadError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "render_grade") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<div id="openassessment__group_response"></div>`))
	})
	html, err := client.Render(context.Background(), FragmentSubmission)
	if err != nil || !strings.Contains(html, "openassessment__group_response") {
		t.Fatalf("render: %q %v", html, err)
	}
	_, err = client.Render(context.Background(), FragmentGrade)
	if terr, ok := AsError(err); !ok || terr.Message != msgLoadFailed {
		t.Fatalf("expected load failure, got %v", err)
	}
}

func TestRenderCoalescesConcurrentRequests(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte("<p>assessment</p>"))
	})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Render(context.Background(), FragmentAssessment); err != nil {
				t.Errorf("render: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 coalesced request, got %d", got)
	}
}

func TestJoinGroup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req joinRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.StudentEmail == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("<p>Welcome " + req.StudentName + "</p>"))
	})
	html, err := client.JoinGroup(context.Background(), "Ada", "ada@example.com")
	if err != nil || html != "<p>Welcome Ada</p>" {
		t.Fatalf("join: %q %v", html, err)
	}
	if _, err := client.JoinGroup(context.Background(), "Ada", ""); err == nil {
		t.Fatalf("expected join failure")
	}
}

func TestErrorString(t *testing.T) {
	if got := (&Error{Code: CodeNoMulti}).Error(); got != CodeNoMulti {
		t.Fatalf("Error() = %q", got)
	}
	if got := (&Error{}).Error(); got == "" {
		t.Fatalf("empty error should still describe itself")
	}
}
