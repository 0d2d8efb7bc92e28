package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestRemote(t *testing.T, handler http.HandlerFunc) (*Remote, *bytes.Buffer) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	out := &bytes.Buffer{}
	return &Remote{Server: server.URL, Out: out}, out
}

func TestRemote_Call(t *testing.T) {
	remote, out := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/join" {
			t.Errorf("unexpected request %v %v", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ticket":1,"position":1}`))
	})

	if err := remote.call(context.Background(), http.MethodPost, "/join", nil, remote.Out); err != nil {
		t.Fatalf("call returned error: %v", err)
	}

	got := map[string]int{}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not json %q: %v", out.String(), err)
	}
	if got["ticket"] != 1 || got["position"] != 1 {
		t.Fatalf("unexpected output %v", got)
	}
}

func TestRemote_CallError(t *testing.T) {
	remote, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"queue is not active","next":"/admin/activate"}`))
	})

	err := remote.call(context.Background(), http.MethodGet, "/status", nil, remote.Out)
	if err == nil || !strings.Contains(err.Error(), "queue is not active") || !strings.Contains(err.Error(), "/admin/activate") {
		t.Fatalf("expected api error, got %v", err)
	}
}

// Drops the connection without answering, as if the response got lost.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	hijacker, ok := w.(http.Hijacker)
	if !ok {
		t.Errorf("response writer cannot hijack")
		return
	}
	conn, _, err := hijacker.Hijack()
	if err != nil {
		t.Errorf("hijack failed: %v", err)
		return
	}
	conn.Close()
}

func TestRemote_Retry(t *testing.T) {
	t.Run("mutation is sent once", func(t *testing.T) {
		var hits atomic.Int32
		remote, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			dropConnection(t, w)
		})

		if err := remote.call(context.Background(), http.MethodPost, "/join", nil, remote.Out); err == nil {
			t.Fatalf("expected a transport error")
		}
		if got := hits.Load(); got != 1 {
			t.Fatalf("expected POST /join to reach the server once, got %v", got)
		}
	})

	t.Run("read is retried", func(t *testing.T) {
		var hits atomic.Int32
		remote, out := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				dropConnection(t, w)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"waitingCount":0}`))
		})

		if err := remote.call(context.Background(), http.MethodGet, "/status", nil, remote.Out); err != nil {
			t.Fatalf("expected the retry to succeed, got %v", err)
		}
		if got := hits.Load(); got < 2 {
			t.Fatalf("expected GET /status to be retried, got %v hits", got)
		}
		if !strings.Contains(out.String(), "waitingCount") {
			t.Fatalf("unexpected output %q", out.String())
		}
	})
}

func TestAdmin_LogsInFirst(t *testing.T) {
	var paths []string
	remote, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		switch r.URL.Path {
		case "/admin/login":
			body := map[string]string{}
			json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "hunter2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "quickqueue_admin", Value: "token", Path: "/"})
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"next":"/admin/overview"}`))
		case "/admin/next":
			if cookie, err := r.Cookie("quickqueue_admin"); err != nil || cookie.Value != "token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ticket":3}`))
		}
	})
	remote.Password = "hunter2"

	if err := (Admin{Remote: remote}).post(context.Background(), "/admin/next", nil); err != nil {
		t.Fatalf("post returned error: %v", err)
	}

	if strings.Join(paths, ",") != "/admin/login,/admin/next" {
		t.Fatalf("unexpected request order %v", paths)
	}
}
