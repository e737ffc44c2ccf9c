package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/atelierhq/chipverify/internal/common"
	"github.com/atelierhq/chipverify/internal/server/models"
	"github.com/atelierhq/chipverify/internal/server/verification"
)

// verifyBody mirrors the wire parameter names: a (tag id), c (signature),
// ctr (counter), t (key id), page_artwork_id (asserted artwork).
type verifyBody struct {
	TagID         string `json:"a"`
	Signature     string `json:"c"`
	Counter       string `json:"ctr"`
	KeyID         string `json:"t"`
	PageArtworkID string `json:"page_artwork_id"`
}

type verdictResponse struct {
	OK              bool             `json:"ok"`
	State           models.ScanState `json:"state"`
	LinkedArtworkID *string          `json:"linked_artwork_id"`
	OwnerHandle     *string          `json:"owner_handle"`
}

type stateResponse struct {
	OK    bool             `json:"ok"`
	State models.ScanState `json:"state"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (s *Server) setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", s.corsOrigin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	req, ok := s.parseRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
	defer cancel()

	result, err := s.service.Verify(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrMissingParams):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing_params"})
		case errors.Is(err, common.ErrBadCounter):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_counter"})
		default:
			s.logger.Error(ctx, "verification failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "server_error"})
		}
		return
	}

	switch result.State {
	case models.ScanStateAuthentic, models.ScanStateMismatch:
		writeJSON(w, http.StatusOK, verdictResponse{
			OK:              true,
			State:           result.State,
			LinkedArtworkID: result.LinkedArtworkID,
			OwnerHandle:     result.OwnerHandle,
		})
	default:
		writeJSON(w, http.StatusOK, stateResponse{State: result.State})
	}
}

// parseRequest builds a verification.Request from either a JSON body (POST)
// or query parameters. A malformed JSON body is a client input error, same
// branch as missing parameters.
func (s *Server) parseRequest(w http.ResponseWriter, r *http.Request) (verification.Request, bool) {
	var body verifyBody

	if r.Method == http.MethodPost && strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing_params"})
			return verification.Request{}, false
		}
	} else {
		q := r.URL.Query()
		body = verifyBody{
			TagID:         q.Get("a"),
			Signature:     q.Get("c"),
			Counter:       q.Get("ctr"),
			KeyID:         q.Get("t"),
			PageArtworkID: q.Get("page_artwork_id"),
		}
	}

	return verification.Request{
		TagID:     body.TagID,
		Signature: body.Signature,
		Counter:   body.Counter,
		KeyID:     body.KeyID,
		ArtworkID: body.PageArtworkID,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}, true
}

// clientIP prefers the first X-Forwarded-For hop; the service sits behind
// the marketplace's proxy in production.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
