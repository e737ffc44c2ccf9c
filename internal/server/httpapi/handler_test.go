package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atelierhq/chipverify/internal/common"
	"github.com/atelierhq/chipverify/internal/logging"
	"github.com/atelierhq/chipverify/internal/server/models"
	"github.com/atelierhq/chipverify/internal/server/verification"
)

// ---- fake service ----

type fakeService struct {
	gotReq verification.Request
	res    *verification.Result
	err    error
}

func (f *fakeService) Verify(ctx context.Context, req verification.Request) (*verification.Result, error) {
	f.gotReq = req
	return f.res, f.err
}

func newTestServer(f *fakeService) *Server {
	return &Server{
		address:      "127.0.0.1:0",
		corsOrigin:   "*",
		storeTimeout: time.Second,
		service:      f,
		logger:       logging.NopLogger{},
	}
}

func doVerify(t *testing.T, s *Server, r *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, r)

	var body map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
		}
	}
	return w, body
}

// ---- tests ----

func TestHandleVerify_GET_Authentic(t *testing.T) {
	linked := "art-X"
	owner := "collector42"
	f := &fakeService{res: &verification.Result{
		State:           models.ScanStateAuthentic,
		LinkedArtworkID: &linked,
		OwnerHandle:     &owner,
	}}
	s := newTestServer(f)

	r := httptest.NewRequest(http.MethodGet, "/api/verify?a=TAG123&c=abcd&ctr=2&page_artwork_id=art-X", nil)
	w, body := doVerify(t, s, r)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if body["ok"] != true || body["state"] != "authentic" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["linked_artwork_id"] != "art-X" || body["owner_handle"] != "collector42" {
		t.Fatalf("unexpected enrichment: %v", body)
	}
	if f.gotReq.TagID != "TAG123" || f.gotReq.Signature != "abcd" || f.gotReq.Counter != "2" || f.gotReq.ArtworkID != "art-X" {
		t.Fatalf("request not mapped: %+v", f.gotReq)
	}
}

func TestHandleVerify_POST_JSONBody(t *testing.T) {
	f := &fakeService{res: &verification.Result{State: models.ScanStateAuthentic}}
	s := newTestServer(f)

	payload := `{"a":"TAG123","c":"abcd","ctr":"7","t":"k1","page_artwork_id":"art-Z"}`
	r := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")

	w, body := doVerify(t, s, r)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if body["state"] != "authentic" {
		t.Fatalf("unexpected body: %v", body)
	}
	if f.gotReq.Counter != "7" || f.gotReq.KeyID != "k1" || f.gotReq.ArtworkID != "art-Z" {
		t.Fatalf("request not mapped: %+v", f.gotReq)
	}
}

func TestHandleVerify_AuthenticWithNullLink(t *testing.T) {
	f := &fakeService{res: &verification.Result{State: models.ScanStateAuthentic}}
	s := newTestServer(f)

	r := httptest.NewRequest(http.MethodGet, "/api/verify?a=T&c=s&ctr=1", nil)
	w, _ := doVerify(t, s, r)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	// null fields must be present, not omitted
	var exact struct {
		OK              bool    `json:"ok"`
		LinkedArtworkID *string `json:"linked_artwork_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &exact); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(w.Body.String(), "linked_artwork_id") {
		t.Fatalf("linked_artwork_id omitted: %s", w.Body.String())
	}
	if exact.LinkedArtworkID != nil {
		t.Fatalf("want null link, got %v", *exact.LinkedArtworkID)
	}
}

func TestHandleVerify_ClonedAndInvalid(t *testing.T) {
	for _, state := range []models.ScanState{models.ScanStateCloned, models.ScanStateInvalid} {
		f := &fakeService{res: &verification.Result{State: state}}
		s := newTestServer(f)

		r := httptest.NewRequest(http.MethodGet, "/api/verify?a=T&c=s&ctr=1", nil)
		w, body := doVerify(t, s, r)

		if w.Code != http.StatusOK {
			t.Fatalf("%s: want 200, got %d", state, w.Code)
		}
		if body["ok"] != false || body["state"] != string(state) {
			t.Fatalf("%s: unexpected body: %v", state, body)
		}
	}
}

func TestHandleVerify_ClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr string
	}{
		{"missing params", common.ErrMissingParams, "missing_params"},
		{"bad counter", common.ErrBadCounter, "bad_counter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeService{err: tt.err}
			s := newTestServer(f)

			r := httptest.NewRequest(http.MethodGet, "/api/verify", nil)
			w, body := doVerify(t, s, r)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", w.Code)
			}
			if body["ok"] != false || body["error"] != tt.wantErr {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

func TestHandleVerify_ServerError(t *testing.T) {
	f := &fakeService{err: errors.New("store unreachable")}
	s := newTestServer(f)

	r := httptest.NewRequest(http.MethodGet, "/api/verify?a=T&c=s&ctr=1", nil)
	w, body := doVerify(t, s, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", w.Code)
	}
	if body["error"] != "server_error" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandleVerify_MalformedJSONBody(t *testing.T) {
	f := &fakeService{}
	s := newTestServer(f)

	r := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader("{nope"))
	r.Header.Set("Content-Type", "application/json")
	w, body := doVerify(t, s, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
	if body["error"] != "missing_params" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandleVerify_Preflight(t *testing.T) {
	s := newTestServer(&fakeService{})

	r := httptest.NewRequest(http.MethodOptions, "/api/verify", nil)
	w, _ := doVerify(t, s, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("preflight must have no body: %q", w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("missing CORS header, got %q", got)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/verify", nil)
	r.RemoteAddr = "198.51.100.4:5123"
	if got := clientIP(r); got != "198.51.100.4" {
		t.Fatalf("want remote host, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.9" {
		t.Fatalf("want first forwarded hop, got %q", got)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeService{})

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w, body := doVerify(t, s, r)

	if w.Code != http.StatusOK || body["status"] != "OK" {
		t.Fatalf("unexpected health response: %d %v", w.Code, body)
	}
}
