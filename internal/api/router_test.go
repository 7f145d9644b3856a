package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yiqunxu123/retail-pos-sub000/internal/api/middleware"
	"github.com/yiqunxu123/retail-pos-sub000/internal/config"
	"github.com/yiqunxu123/retail-pos-sub000/internal/db"
	"github.com/yiqunxu123/retail-pos-sub000/internal/pool"
	"github.com/yiqunxu123/retail-pos-sub000/internal/transport"
)

type nullSender struct {
	mu    sync.Mutex
	sends []transport.Target
}

func (s *nullSender) Send(target transport.Target, payload transport.Payload, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, target)
	return nil
}

type testAPI struct {
	router *gin.Engine
	token  string
	sender *nullSender
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sender := &nullSender{}
	p := pool.New(config.PoolConfig{
		SendTimeout:    time.Second,
		SettleInterval: time.Millisecond,
		HoldPerLine:    0,
		HoldMin:        0,
		HoldMax:        time.Millisecond,
	}, sender)

	auth, err := middleware.NewAuthMiddleware(store)
	if err != nil {
		t.Fatalf("NewAuthMiddleware() error = %v", err)
	}

	a := &testAPI{router: NewRouter(p, store, auth), sender: sender}

	// First boot requires a password setup; reuse the issued cookie.
	w := a.do(t, http.MethodPost, "/api/auth/setup", map[string]any{"password": "secret-pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("setup returned %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "printpool_auth" {
			a.token = c.Value
		}
	}
	if a.token == "" {
		t.Fatal("setup did not issue an auth cookie")
	}
	return a
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/printers", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated request returned %d, want 401", w.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	a := newTestAPI(t)
	a.token = ""

	w := a.do(t, http.MethodPost, "/api/auth/login", map[string]any{"password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password returned %d, want 401", w.Code)
	}

	w = a.do(t, http.MethodPost, "/api/auth/login", map[string]any{"password": "secret-pw"})
	if w.Code != http.StatusOK {
		t.Errorf("login returned %d: %s", w.Code, w.Body.String())
	}
}

func TestPrinterLifecycle(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/printers", map[string]any{
		"id":   "front-desk",
		"name": "Front Desk",
		"type": "ethernet",
		"ip":   "192.168.1.50",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create printer returned %d: %s", w.Code, w.Body.String())
	}

	var snap pool.PrinterSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode printer: %v", err)
	}
	if snap.Port != transport.DefaultEthernetPort {
		t.Errorf("port = %d, want default %d", snap.Port, transport.DefaultEthernetPort)
	}
	if !snap.Enabled || snap.Status != pool.StatusIdle {
		t.Errorf("new printer = %+v, want enabled idle", snap)
	}

	// Duplicate ID is rejected.
	w = a.do(t, http.MethodPost, "/api/printers", map[string]any{
		"id": "front-desk", "type": "ethernet", "ip": "10.0.0.1",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create returned %d, want 409", w.Code)
	}

	w = a.do(t, http.MethodPut, "/api/printers/front-desk/enabled", map[string]any{"enabled": false})
	if w.Code != http.StatusOK {
		t.Fatalf("disable returned %d: %s", w.Code, w.Body.String())
	}

	w = a.do(t, http.MethodGet, "/api/printers/front-desk", nil)
	json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.Enabled {
		t.Error("printer still enabled after disable")
	}

	w = a.do(t, http.MethodDelete, "/api/printers/front-desk", nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete returned %d", w.Code)
	}
	w = a.do(t, http.MethodGet, "/api/printers/front-desk", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete returned %d, want 404", w.Code)
	}
}

func TestSubmitJob(t *testing.T) {
	a := newTestAPI(t)

	// No printers yet: submission is rejected outright.
	w := a.do(t, http.MethodPost, "/api/jobs", map[string]any{"text": "hello"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("submit without printers returned %d, want 503", w.Code)
	}

	a.do(t, http.MethodPost, "/api/printers", map[string]any{
		"id": "p1", "type": "ethernet", "ip": "192.168.1.50",
	})

	w = a.do(t, http.MethodPost, "/api/jobs", map[string]any{"text": "hello", "priority": 2})
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit returned %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.JobID == "" {
		t.Fatalf("submit response missing job_id: %s", w.Body.String())
	}

	// Both text and raw is invalid.
	w = a.do(t, http.MethodPost, "/api/jobs", map[string]any{"text": "a", "raw": "aGk="})
	if w.Code != http.StatusBadRequest {
		t.Errorf("text+raw returned %d, want 400", w.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		a.sender.mu.Lock()
		n := len(a.sender.sends)
		a.sender.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job was never dispatched to the device sender")
}

func TestStatusEndpoint(t *testing.T) {
	a := newTestAPI(t)

	a.do(t, http.MethodPost, "/api/printers", map[string]any{
		"id": "p1", "type": "ethernet", "ip": "192.168.1.50",
	})

	w := a.do(t, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status returned %d", w.Code)
	}
	var status pool.PoolStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if len(status.Printers) != 1 {
		t.Errorf("status lists %d printers, want 1", len(status.Printers))
	}
}

func TestWebhookCRUDEndpoints(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/webhooks", map[string]any{
		"name":   "ops",
		"url":    "http://example.com/hook",
		"secret": "s3cret",
		"events": []string{"job_failed"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create webhook returned %d: %s", w.Code, w.Body.String())
	}
	var created db.Webhook
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.Secret != "" {
		t.Error("create response leaked the webhook secret")
	}

	w = a.do(t, http.MethodGet, "/api/webhooks", nil)
	var hooks []db.Webhook
	json.Unmarshal(w.Body.Bytes(), &hooks)
	if len(hooks) != 1 || hooks[0].Name != "ops" || hooks[0].Secret != "" {
		t.Errorf("list webhooks = %+v", hooks)
	}
}
