package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPSender_Send(t *testing.T) {
	var gotMethod, gotPath, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"payload":{"value":"tok"}}`))
	}))
	defer srv.Close()

	s := NewHTTPSender(time.Second)
	resp, err := s.Send(context.Background(), http.MethodPut, srv.URL+"/enter_orchestration", []byte(`{"name":"default"}`))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if string(resp) != `{"payload":{"value":"tok"}}` {
		t.Errorf("response = %s", resp)
	}
	if gotMethod != http.MethodPut || gotPath != "/enter_orchestration" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody != `{"name":"default"}` || gotType != "application/json" {
		t.Errorf("body = %s, content type = %s", gotBody, gotType)
	}
}

func TestHTTPSender_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such orchestration", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPSender(time.Second).Send(context.Background(), http.MethodPut, srv.URL+"/x", []byte(`{}`))

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
}

func TestHTTPSender_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewHTTPSender(time.Second).Send(context.Background(), http.MethodPut, url+"/x", nil); err == nil {
		t.Error("Send() to a closed server succeeded")
	}
}

func TestHTTPSender_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewHTTPSender(50*time.Millisecond).Send(context.Background(), http.MethodPut, srv.URL+"/x", nil)
	if err == nil {
		t.Fatal("Send() did not time out")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("timeout took %v", time.Since(start))
	}
}
