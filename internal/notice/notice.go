// Package notice renders the partner banner that invites an administrator
// to install the companion extension, and tracks who dismissed it.
package notice

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/Fimeg/partnernotice/internal/userflags"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// keyPrefix namespaces the per-project dismissal flag and token key
const keyPrefix = "extendify_complete_install_"

// ErrNoProject is returned when a notice is configured without a project name
var ErrNoProject = errors.New("partner notice: no project name given, specify the name of your theme or plugin")

// Image is the banner image. Markup, when set, is used verbatim.
type Image struct {
	Markup string
	URL    string
	Width  int
	Height int
}

// NonceIssuer issues action tokens embedded in the rendered notice
type NonceIssuer interface {
	Issue(action string, userID uuid.UUID) (string, error)
}

// CompanionLookup finds the companion extension by its text domain
type CompanionLookup interface {
	GetExtensionByTextDomain(ctx context.Context, textDomain string) (*models.Extension, error)
}

// Options configure a Notice
type Options struct {
	Project    string
	Brand      string
	Screens    []string
	Image      Image
	Labels     Labels
	Language   language.Tag
	TextDomain string
}

// Notice is one partner banner
type Notice struct {
	project    string
	key        string
	labels     Labels
	image      Image
	screens    map[string]bool
	textDomain string
	language   language.Tag

	flags     userflags.Store
	nonces    NonceIssuer
	companion CompanionLookup
	now       func() time.Time
}

// New creates a notice. companion may be nil, in which case the notice is
// shown regardless of whether the companion extension is already active.
func New(opts Options, flags userflags.Store, nonces NonceIssuer, companion CompanionLookup) (*Notice, error) {
	if strings.TrimSpace(opts.Project) == "" {
		return nil, ErrNoProject
	}
	if opts.Language == language.Und {
		opts.Language = language.English
	}

	screens := opts.Screens
	if len(screens) == 0 {
		screens = []string{"themes"}
	}
	allowed := make(map[string]bool, len(screens))
	for _, s := range screens {
		allowed[s] = true
	}

	return &Notice{
		project:    opts.Project,
		key:        Key(opts.Project),
		labels:     DefaultLabels(opts.Language, opts.Project, opts.Brand).Merge(opts.Labels),
		image:      withImageDefaults(opts.Image),
		screens:    allowed,
		textDomain: opts.TextDomain,
		language:   opts.Language,
		flags:      flags,
		nonces:     nonces,
		companion:  companion,
		now:        time.Now,
	}, nil
}

// Key derives the per-project notice key
func Key(project string) string {
	return keyPrefix + strings.ToLower(strings.ReplaceAll(project, " ", "_"))
}

// Key returns the dismissal flag and token key of this notice
func (n *Notice) Key() string {
	return n.key
}

// Project returns the name of the partner project
func (n *Notice) Project() string {
	return n.project
}

// InstallAction is the ajax action posted by the install button
func (n *Notice) InstallAction() string {
	return "handle_extendify_install_" + n.key
}

// DismissAction is the ajax action posted by the dismiss button
func (n *Notice) DismissAction() string {
	return "handle_" + n.key
}

// SecurityFailedMessage is the localized bad-token message
func (n *Notice) SecurityFailedMessage() string {
	return SecurityFailedMessage(n.language)
}

// Dismissed reports whether the user has already dismissed the notice
func (n *Notice) Dismissed(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, ok, err := n.flags.Get(ctx, userID, n.key)
	if err != nil {
		return false, fmt.Errorf("failed to read dismissal flag: %w", err)
	}
	return ok, nil
}

// Dismiss records that the user dismissed the notice
func (n *Notice) Dismiss(ctx context.Context, userID uuid.UUID) error {
	if err := n.flags.Set(ctx, userID, n.key, n.now()); err != nil {
		return fmt.Errorf("failed to write dismissal flag: %w", err)
	}
	return nil
}

// StandaloneActive reports whether the companion extension is installed and active
func (n *Notice) StandaloneActive(ctx context.Context) (bool, error) {
	if n.companion == nil || n.textDomain == "" {
		return false, nil
	}
	ext, err := n.companion.GetExtensionByTextDomain(ctx, n.textDomain)
	if errors.Is(err, models.ErrExtensionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up companion extension: %w", err)
	}
	return ext.Status.IsActive(), nil
}

// Render returns the banner for the screen, or "" when the notice is not
// eligible: wrong screen, another notice already shown in this request, the
// user dismissed it, or the companion is already active.
func (n *Notice) Render(ctx context.Context, rc *RenderContext, screen string, user models.User) (template.HTML, error) {
	if !n.screens[screen] || rc.NoticeShowing() {
		return "", nil
	}

	active, err := n.StandaloneActive(ctx)
	if err != nil {
		return "", err
	}
	if active {
		return "", nil
	}

	dismissed, err := n.Dismissed(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if dismissed {
		return "", nil
	}

	token, err := n.nonces.Issue(n.key, user.ID)
	if err != nil {
		return "", err
	}

	html, err := renderBanner(bannerData{
		Key:           n.key,
		Labels:        n.labels,
		Image:         n.image,
		Nonce:         token,
		InstallAction: n.InstallAction(),
		DismissAction: n.DismissAction(),
	})
	if err != nil {
		return "", err
	}

	rc.markShowing(n.key)
	return html, nil
}
