package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialstack/sipvr/internal/adapters/present"
	"github.com/dialstack/sipvr/internal/config"
	"github.com/dialstack/sipvr/internal/core"
)

type fakeService struct {
	registerErr error
	callErr     error
	videoErr    error
	hangupErr   error

	registered string
	dialed     string
	video      bool
}

func (s *fakeService) StartRegistration(extension string) error {
	s.registered = extension
	return s.registerErr
}

func (s *fakeService) PlaceCall(destination string, wantsVideo bool) error {
	s.dialed, s.video = destination, wantsVideo
	return s.callErr
}

func (s *fakeService) StartVideo() error { return s.videoErr }
func (s *fakeService) Hangup() error     { return s.hangupErr }

func newTestRouter(svc *fakeService) (http.Handler, *present.View) {
	view := present.NewView()
	cfg := &config.Config{Mode: "release", VideoRoom: 1234}
	return SetupRouter(cfg, svc, view), view
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(&fakeService{})
	w := doJSON(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestClientTokenCookieIssued(t *testing.T) {
	h, _ := newTestRouter(&fakeService{})
	w := doJSON(t, h, http.MethodGet, "/healthz", "")
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "ct", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestRegisterAccepted(t *testing.T) {
	svc := &fakeService{}
	h, _ := newTestRouter(svc)
	w := doJSON(t, h, http.MethodPost, "/api/register", `{"account":"7001"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "7001", svc.registered)
}

func TestRegisterBadJSON(t *testing.T) {
	h, _ := newTestRouter(&fakeService{})
	w := doJSON(t, h, http.MethodPost, "/api/register", `{"account":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid account", fmt.Errorf("%w: empty", core.ErrInvalidAccount), http.StatusBadRequest},
		{"invalid state", fmt.Errorf("%w: idle", core.ErrInvalidState), http.StatusConflict},
		{"anything else", fmt.Errorf("gateway gone"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{registerErr: tt.err}
			h, _ := newTestRouter(svc)
			w := doJSON(t, h, http.MethodPost, "/api/register", `{"account":"7001"}`)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestPlaceCallPassesVideoFlag(t *testing.T) {
	svc := &fakeService{}
	h, _ := newTestRouter(svc)
	w := doJSON(t, h, http.MethodPost, "/api/call", `{"uri":"7002","video":true}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "7002", svc.dialed)
	assert.True(t, svc.video)
}

func TestCallFromIdleConflicts(t *testing.T) {
	svc := &fakeService{callErr: fmt.Errorf("%w: idle", core.ErrInvalidState)}
	h, _ := newTestRouter(svc)
	w := doJSON(t, h, http.MethodPost, "/api/call", `{"uri":"7002"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVideoReportsRoom(t *testing.T) {
	h, _ := newTestRouter(&fakeService{})
	w := doJSON(t, h, http.MethodPost, "/api/video", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"room":1234}`, w.Body.String())
}

func TestHangupOK(t *testing.T) {
	h, _ := newTestRouter(&fakeService{})
	w := doJSON(t, h, http.MethodPost, "/api/hangup", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusReflectsView(t *testing.T) {
	h, view := newTestRouter(&fakeService{})
	view.Apply(core.RenderLocalMedia{})
	view.Apply(core.RenderRemoteMedia{Slot: 1, Display: "alice"})
	view.Apply(core.Notify{Event: "accepted"})

	w := doJSON(t, h, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"local_media":true,"feeds":[{"slot":1,"display":"alice"}],"last_event":"accepted"}`, w.Body.String())
}
