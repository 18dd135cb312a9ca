package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Fimeg/partnernotice/internal/installer"
	"github.com/Fimeg/partnernotice/internal/nonce"
	"github.com/Fimeg/partnernotice/internal/notice"
	"github.com/Fimeg/partnernotice/internal/userflags"
	"github.com/gin-gonic/gin"
)

type ajaxResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"data"`
}

type noticeFixture struct {
	router      *gin.Engine
	notice      *notice.Notice
	flags       *userflags.MemoryStore
	nonces      *nonce.Manager
	coordinator *fakeCoordinator
}

func newNoticeFixture(t *testing.T, projects ...string) *noticeFixture {
	t.Helper()
	if len(projects) == 0 {
		projects = []string{"Acme Theme"}
	}

	flags := userflags.NewMemoryStore()
	nonces := nonce.NewManager("test-secret", 0)
	var notices []*notice.Notice
	for _, project := range projects {
		n, err := notice.New(notice.Options{
			Project: project,
			Brand:   "Extendify",
			Screens: []string{"themes", "dashboard"},
			Image:   notice.Image{URL: "https://example.com/logo.png"},
		}, flags, nonces, nil)
		if err != nil {
			t.Fatalf("notice.New failed: %v", err)
		}
		notices = append(notices, n)
	}

	coordinator := &fakeCoordinator{outcome: installer.Success(nil)}
	h := NewNoticeHandler(notices, nonces, coordinator, "extendify", "/api/v1/admin/ajax")

	router := gin.New()
	admin := router.Group("/admin", withUser(testAdmin))
	admin.GET("/screens/:screen", h.RenderScreen)
	admin.POST("/ajax", h.Ajax)

	return &noticeFixture{
		router:      router,
		notice:      notices[0],
		flags:       flags,
		nonces:      nonces,
		coordinator: coordinator,
	}
}

func (f *noticeFixture) token(t *testing.T) string {
	t.Helper()
	token, err := f.nonces.Issue(f.notice.Key(), testAdmin.ID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return token
}

func (f *noticeFixture) dismissed(t *testing.T) bool {
	t.Helper()
	_, ok, err := f.flags.Get(context.Background(), testAdmin.ID, f.notice.Key())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	return ok
}

func decodeAjax(t *testing.T, w *httptest.ResponseRecorder) ajaxResponse {
	t.Helper()
	var resp ajaxResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestAjaxDismiss(t *testing.T) {
	f := newNoticeFixture(t)

	w := postForm(t, f.router, "/admin/ajax", url.Values{
		"action":   {f.notice.DismissAction()},
		"_wpnonce": {f.token(t)},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !decodeAjax(t, w).Success {
		t.Error("expected success")
	}
	if !f.dismissed(t) {
		t.Error("dismissal flag not set")
	}
	if f.coordinator.calls != 0 {
		t.Errorf("dismiss must not install, coordinator called %d times", f.coordinator.calls)
	}
}

func TestAjaxSecurityCheck(t *testing.T) {
	f := newNoticeFixture(t)
	other, err := nonce.NewManager("other-secret", 0).Issue(f.notice.Key(), testAdmin.ID)
	if err != nil {
		t.Fatal(err)
	}
	wrongAction, err := f.nonces.Issue("some_other_key", testAdmin.ID)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token []string
	}{
		{name: "missing token", token: nil},
		{name: "garbage token", token: []string{"not-a-token"}},
		{name: "foreign secret", token: []string{other}},
		{name: "token for another key", token: []string{wrongAction}},
	}

	for _, tt := range tests {
		for _, action := range []string{f.notice.DismissAction(), f.notice.InstallAction()} {
			t.Run(tt.name+"/"+action, func(t *testing.T) {
				form := url.Values{"action": {action}}
				if tt.token != nil {
					form["_wpnonce"] = tt.token
				}
				w := postForm(t, f.router, "/admin/ajax", form)

				if w.Code != http.StatusUnauthorized {
					t.Fatalf("status = %d, want 401", w.Code)
				}
				resp := decodeAjax(t, w)
				if resp.Success {
					t.Error("expected failure envelope")
				}
				if resp.Data.Message != "The security check failed. Please refresh the page and try again." {
					t.Errorf("message = %q", resp.Data.Message)
				}
				if f.dismissed(t) {
					t.Error("flag must not be set when the security check fails")
				}
				if f.coordinator.calls != 0 {
					t.Error("coordinator must not run when the security check fails")
				}
			})
		}
	}
}

func TestAjaxInstall(t *testing.T) {
	f := newNoticeFixture(t)

	w := postForm(t, f.router, "/admin/ajax", url.Values{
		"action":   {f.notice.InstallAction()},
		"_wpnonce": {f.token(t)},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if f.coordinator.calls != 1 || f.coordinator.identifiers[0] != "extendify" {
		t.Errorf("coordinator calls = %d %v", f.coordinator.calls, f.coordinator.identifiers)
	}
	if !f.dismissed(t) {
		t.Error("install also dismisses the notice")
	}
}

func TestAjaxInstallFailure(t *testing.T) {
	f := newNoticeFixture(t)
	f.coordinator.outcome = installer.Failure(installer.CodeNoPackage, "Download failed. Not Found")

	w := postForm(t, f.router, "/admin/ajax", url.Values{
		"action":   {f.notice.InstallAction()},
		"_wpnonce": {f.token(t)},
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	resp := decodeAjax(t, w)
	if resp.Data.Code != installer.CodeNoPackage || resp.Data.Message != "Download failed. Not Found" {
		t.Errorf("data = %+v", resp.Data)
	}
	if !f.dismissed(t) {
		t.Error("flag is set before the install runs")
	}
}

func TestAjaxInstallPanicRecovered(t *testing.T) {
	f := newNoticeFixture(t)
	f.coordinator.panicWith = "filesystem exploded"

	w := postForm(t, f.router, "/admin/ajax", url.Values{
		"action":   {f.notice.InstallAction()},
		"_wpnonce": {f.token(t)},
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	resp := decodeAjax(t, w)
	if resp.Data.Code != installer.CodeInternal || resp.Data.Message != "filesystem exploded" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestAjaxUnknownAction(t *testing.T) {
	f := newNoticeFixture(t)

	w := postForm(t, f.router, "/admin/ajax", url.Values{
		"action":   {"handle_something_else"},
		"_wpnonce": {f.token(t)},
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func getScreen(t *testing.T, router http.Handler, screen string) string {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/screens/"+screen, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	return w.Body.String()
}

func TestRenderScreen(t *testing.T) {
	f := newNoticeFixture(t)

	body := getScreen(t, f.router, "themes")
	if !strings.Contains(body, `id="`+f.notice.Key()+`"`) {
		t.Errorf("notice missing from themes screen:\n%s", body)
	}
	if !strings.Contains(body, "window.ajaxurl = ") || !strings.Contains(body, "admin") {
		t.Errorf("ajax url not exported:\n%s", body)
	}

	if body := getScreen(t, f.router, "plugins"); strings.Contains(body, f.notice.Key()) {
		t.Error("notice rendered on a screen outside the allow-list")
	}
}

func TestRenderScreenAfterDismiss(t *testing.T) {
	f := newNoticeFixture(t)

	w := postForm(t, f.router, "/admin/ajax", url.Values{
		"action":   {f.notice.DismissAction()},
		"_wpnonce": {f.token(t)},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("dismiss status = %d", w.Code)
	}

	if body := getScreen(t, f.router, "themes"); strings.Contains(body, f.notice.Key()) {
		t.Error("dismissed notice rendered again")
	}
}

func TestRenderScreenShowsOneNotice(t *testing.T) {
	f := newNoticeFixture(t, "Acme Theme", "Other Plugin")

	body := getScreen(t, f.router, "dashboard")
	if !strings.Contains(body, notice.Key("Acme Theme")) {
		t.Error("first notice missing")
	}
	if strings.Contains(body, notice.Key("Other Plugin")) {
		t.Error("second notice rendered in the same request")
	}
}
