package notice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/Fimeg/partnernotice/internal/userflags"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

type stubNonces struct{}

func (stubNonces) Issue(action string, userID uuid.UUID) (string, error) {
	return "nonce-for-" + action, nil
}

type stubCompanion struct {
	ext *models.Extension
	err error
}

func (s stubCompanion) GetExtensionByTextDomain(ctx context.Context, textDomain string) (*models.Extension, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.ext == nil {
		return nil, models.ErrExtensionNotFound
	}
	return s.ext, nil
}

func newTestNotice(t *testing.T, opts Options, companion CompanionLookup) (*Notice, *userflags.MemoryStore) {
	t.Helper()
	flags := userflags.NewMemoryStore()
	n, err := New(opts, flags, stubNonces{}, companion)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return n, flags
}

func TestNewRequiresProject(t *testing.T) {
	_, err := New(Options{Project: "  "}, userflags.NewMemoryStore(), stubNonces{}, nil)
	if !errors.Is(err, ErrNoProject) {
		t.Errorf("New() error = %v, want ErrNoProject", err)
	}
}

func TestKeysAndActions(t *testing.T) {
	n, _ := newTestNotice(t, Options{Project: "Acme Theme"}, nil)

	if got := n.Key(); got != "extendify_complete_install_acme_theme" {
		t.Errorf("Key() = %q", got)
	}
	if got := n.InstallAction(); got != "handle_extendify_install_extendify_complete_install_acme_theme" {
		t.Errorf("InstallAction() = %q", got)
	}
	if got := n.DismissAction(); got != "handle_extendify_complete_install_acme_theme" {
		t.Errorf("DismissAction() = %q", got)
	}
}

func TestRenderEligibility(t *testing.T) {
	ctx := context.Background()
	user := models.User{ID: uuid.New(), Role: models.RoleAdmin}
	n, _ := newTestNotice(t, Options{Project: "Acme", Brand: "Extendify", Screens: []string{"themes", "plugins"}}, nil)

	html, err := n.Render(ctx, NewRenderContext(), "dashboard", user)
	if err != nil || html != "" {
		t.Errorf("screen outside allow-list rendered %q, err %v", html, err)
	}

	rc := NewRenderContext()
	html, err = n.Render(ctx, rc, "themes", user)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for _, want := range []string{
		`id="extendify_complete_install_acme"`,
		"Acme &#43; Extendify = Awesomeness",
		"Install &amp; Activate Extendify",
		"nonce-for-extendify_complete_install_acme",
		"handle_extendify_install_extendify_complete_install_acme",
	} {
		if !strings.Contains(string(html), want) {
			t.Errorf("rendered notice missing %q", want)
		}
	}
	if rc.Showing() != n.Key() {
		t.Errorf("render context showing %q, want %q", rc.Showing(), n.Key())
	}

	again, err := n.Render(ctx, rc, "plugins", user)
	if err != nil || again != "" {
		t.Errorf("second render in the same request = %q, err %v", again, err)
	}
}

func TestRenderOnlyOneNoticePerRequest(t *testing.T) {
	ctx := context.Background()
	user := models.User{ID: uuid.New()}
	first, _ := newTestNotice(t, Options{Project: "First"}, nil)
	second, _ := newTestNotice(t, Options{Project: "Second"}, nil)

	rc := NewRenderContext()
	if html, _ := first.Render(ctx, rc, "themes", user); html == "" {
		t.Fatal("first notice should render")
	}
	if html, _ := second.Render(ctx, rc, "themes", user); html != "" {
		t.Error("second notice rendered in the same request")
	}
	if html, _ := second.Render(ctx, NewRenderContext(), "themes", user); html == "" {
		t.Error("second notice should render in a fresh request")
	}
}

func TestRenderSkipsDismissed(t *testing.T) {
	ctx := context.Background()
	user := models.User{ID: uuid.New()}
	n, _ := newTestNotice(t, Options{Project: "Acme"}, nil)

	if err := n.Dismiss(ctx, user.ID); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}
	dismissed, err := n.Dismissed(ctx, user.ID)
	if err != nil || !dismissed {
		t.Fatalf("Dismissed() = %v, %v", dismissed, err)
	}

	html, err := n.Render(ctx, NewRenderContext(), "themes", user)
	if err != nil || html != "" {
		t.Errorf("dismissed notice rendered %q, err %v", html, err)
	}

	other := models.User{ID: uuid.New()}
	if html, _ := n.Render(ctx, NewRenderContext(), "themes", other); html == "" {
		t.Error("dismissal leaked to another user")
	}
}

func TestRenderSkipsActiveCompanion(t *testing.T) {
	ctx := context.Background()
	user := models.User{ID: uuid.New()}

	tests := []struct {
		name      string
		companion stubCompanion
		wantShown bool
	}{
		{"not installed", stubCompanion{}, true},
		{"inactive", stubCompanion{ext: &models.Extension{Status: models.ExtensionStatusInactive}}, true},
		{"active", stubCompanion{ext: &models.Extension{Status: models.ExtensionStatusActive}}, false},
		{"network active", stubCompanion{ext: &models.Extension{Status: models.ExtensionStatusNetworkActive}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _ := newTestNotice(t, Options{Project: "Acme", TextDomain: "extendify"}, tt.companion)
			html, err := n.Render(ctx, NewRenderContext(), "themes", user)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if shown := html != ""; shown != tt.wantShown {
				t.Errorf("shown = %v, want %v", shown, tt.wantShown)
			}
		})
	}

	n, _ := newTestNotice(t, Options{Project: "Acme", TextDomain: "extendify"}, stubCompanion{err: errors.New("db down")})
	if _, err := n.Render(ctx, NewRenderContext(), "themes", user); err == nil {
		t.Error("expected lookup error to surface")
	}
}

func TestRenderImage(t *testing.T) {
	ctx := context.Background()
	user := models.User{ID: uuid.New()}

	n, _ := newTestNotice(t, Options{Project: "Acme", Image: Image{URL: "https://example.test/icon.png"}}, nil)
	html, _ := n.Render(ctx, NewRenderContext(), "themes", user)
	for _, want := range []string{`width="96"`, `height="96"`, `src="https://example.test/icon.png"`} {
		if !strings.Contains(string(html), want) {
			t.Errorf("image markup missing %q", want)
		}
	}

	svg := `<svg class="partner-logo"></svg>`
	n, _ = newTestNotice(t, Options{Project: "Acme", Image: Image{Markup: svg}}, nil)
	html, _ = n.Render(ctx, NewRenderContext(), "themes", user)
	if !strings.Contains(string(html), svg) {
		t.Error("custom image markup not rendered verbatim")
	}
}

func TestLabels(t *testing.T) {
	l := DefaultLabels(language.English, "Acme", "Extendify").Merge(Labels{Install: "Get it"})
	if l.Install != "Get it" {
		t.Errorf("override not applied: %q", l.Install)
	}
	if l.Installing != "Installing..." {
		t.Errorf("default lost: %q", l.Installing)
	}
	if l.DismissLabel != "Dismiss Extendify notice" {
		t.Errorf("DismissLabel = %q", l.DismissLabel)
	}
	if !strings.HasPrefix(l.MainContent, "We're excited to announce that Acme is partnering with the Extendify library") {
		t.Errorf("MainContent = %q", l.MainContent)
	}

	de := DefaultLabels(language.German, "Acme", "Extendify")
	if de.Installing != "Wird installiert..." {
		t.Errorf("German Installing = %q", de.Installing)
	}
	if de.Header != "Acme + Extendify = Großartig" {
		t.Errorf("German Header = %q", de.Header)
	}
}
