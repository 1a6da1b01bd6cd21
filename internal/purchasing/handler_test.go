package purchasing

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (chi.Router, *Service, *memoryOrderRepo) {
	t.Helper()
	svc, repo, _ := newTestService(seedItems())
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, svc, repo
}

func TestCancelReadsChunkedBody(t *testing.T) {
	router, svc, repo := newTestRouter(t)
	po, _ := createDraft(t, svc)

	// a body reader of unknown length arrives with ContentLength -1,
	// the way chunked transfer encoding does
	body := struct{ io.Reader }{strings.NewReader(`{"reason":"supplier gone"}`)}
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/orders/%d/cancel", po.ID), body)
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, int64(-1), req.ContentLength)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, StatusCancelled, repo.orders[po.ID].Status)
}

func TestTransitionAcceptsEmptyBody(t *testing.T) {
	router, svc, repo := newTestRouter(t)
	po, _ := createDraft(t, svc)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/orders/%d/submit", po.ID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, StatusSubmitted, repo.orders[po.ID].Status)
}

func TestTransitionRejectsMalformedBody(t *testing.T) {
	router, svc, repo := newTestRouter(t)
	po, _ := createDraft(t, svc)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/orders/%d/cancel", po.ID), strings.NewReader(`{"reason"`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, StatusDraft, repo.orders[po.ID].Status)
}
