package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func shortDelays(c *Client) {
	c.retryInitial = time.Millisecond
	c.retryMax = 5 * time.Millisecond
}

func TestClient_RetriesTransientFailuresThreeTimes(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken(""), nil)
	shortDelays(c)
	_, err := c.GenerateResponse(context.Background(), "transcript", "question")
	if err == nil {
		t.Fatal("expected failure after exhausting attempts")
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", n)
	}
}

func TestClient_RecoversWithinAttemptBudget(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "hello candidate"})
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken(""), nil)
	shortDelays(c)
	reply, err := c.GenerateResponse(context.Background(), "transcript", "question")
	if err != nil {
		t.Fatalf("expected recovery on third attempt: %v", err)
	}
	if reply != "hello candidate" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Missing transcript"})
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken(""), nil)
	shortDelays(c)
	_, err := c.GenerateResponse(context.Background(), "", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Missing transcript" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", n)
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("tok123"), nil)
	if _, err := c.Transcribe(context.Background(), []byte("audio"), "video/webm", TranscribeOptions{}); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestClient_TranscribeEncodesAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AudioData string `json:"audio_data"`
			MIMEType  string `json:"mime_type"`
			Options   *struct {
				Language string `json:"language"`
			} `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		raw, _ := base64.StdEncoding.DecodeString(req.AudioData)
		if string(raw) != "rawbytes" || req.MIMEType != "video/webm" {
			t.Errorf("unexpected payload %+v", req)
		}
		if req.Options == nil || req.Options.Language != "en" {
			t.Errorf("expected language option, got %+v", req.Options)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "spoken words"})
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken(""), nil)
	text, err := c.Transcribe(context.Background(), []byte("rawbytes"), "video/webm", TranscribeOptions{Language: "en"})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "spoken words" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestClient_LoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "issued"})
	}))
	defer srv.Close()

	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	c := New(srv.URL, store, nil)
	if err := c.Login(context.Background(), "cand-1", "candidate"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if store.Token() != "issued" {
		t.Fatalf("expected token persisted, got %q", store.Token())
	}
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "nested", "token"))
	if store.Token() != "" {
		t.Fatal("expected empty token before set")
	}
	if err := store.SetToken("abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if store.Token() != "abc" {
		t.Fatalf("got %q", store.Token())
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.Token() != "" {
		t.Fatal("expected empty token after clear")
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear should be a no-op, got %v", err)
	}
}
