package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Fimeg/partnernotice/internal/installer"
	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/Fimeg/partnernotice/internal/notice"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InstallCoordinator installs and activates an extension for a user
type InstallCoordinator interface {
	InstallAndActivate(ctx context.Context, user models.User, identifier string) installer.Outcome
}

// NonceVerifier checks the token posted with a notice action
type NonceVerifier interface {
	Verify(token, action string, userID uuid.UUID) error
}

type actionKind int

const (
	actionDismiss actionKind = iota
	actionInstall
)

type noticeAction struct {
	notice *notice.Notice
	kind   actionKind
}

// NoticeHandler renders partner notices into admin screens and handles
// the dismiss and install actions their buttons post.
type NoticeHandler struct {
	notices     []*notice.Notice
	actions     map[string]noticeAction
	nonces      NonceVerifier
	coordinator InstallCoordinator
	companion   string
	ajaxURL     string
}

// NewNoticeHandler creates a notice handler. companion is the identifier
// the install action installs; ajaxURL is where notice buttons post.
func NewNoticeHandler(notices []*notice.Notice, nonces NonceVerifier, coordinator InstallCoordinator, companion, ajaxURL string) *NoticeHandler {
	actions := make(map[string]noticeAction, 2*len(notices))
	for _, n := range notices {
		actions[n.DismissAction()] = noticeAction{notice: n, kind: actionDismiss}
		actions[n.InstallAction()] = noticeAction{notice: n, kind: actionInstall}
	}
	return &NoticeHandler{
		notices:     notices,
		actions:     actions,
		nonces:      nonces,
		coordinator: coordinator,
		companion:   companion,
		ajaxURL:     ajaxURL,
	}
}

var screenTemplate = template.Must(template.New("screen").Parse(`<script>window.ajaxurl = {{.AjaxURL}};</script>
<div class="wrap" data-screen="{{.Screen}}">
{{- range .Notices}}
{{.}}
{{- end}}
</div>
`))

type screenData struct {
	AjaxURL string
	Screen  string
	Notices []template.HTML
}

// RenderScreen handles GET /admin/screens/:screen
func (h *NoticeHandler) RenderScreen(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	screen := c.Param("screen")
	rc := notice.NewRenderContext()
	data := screenData{AjaxURL: h.ajaxURL, Screen: screen}

	for _, n := range h.notices {
		html, err := n.Render(c.Request.Context(), rc, screen, user)
		if err != nil {
			// A broken notice must not take the admin screen down with it
			log.Error().Err(err).Str("notice", n.Key()).Str("screen", screen).Msg("failed to render notice")
			continue
		}
		if html != "" {
			data.Notices = append(data.Notices, html)
		}
	}

	var buf bytes.Buffer
	if err := screenTemplate.Execute(&buf, data); err != nil {
		log.Error().Err(err).Str("screen", screen).Msg("failed to render screen")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render screen"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Ajax handles POST /admin/ajax. The form carries the action name and
// the _wpnonce token rendered into the notice.
func (h *NoticeHandler) Ajax(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	action, found := h.actions[c.PostForm("action")]
	if !found {
		c.JSON(http.StatusBadRequest, jsonError("unknown action", ""))
		return
	}
	n := action.notice
	ctx := c.Request.Context()

	if err := h.nonces.Verify(c.PostForm("_wpnonce"), n.Key(), user.ID); err != nil {
		log.Warn().Err(err).Str("action", c.PostForm("action")).Str("user_id", user.ID.String()).Msg("notice action security check failed")
		c.JSON(http.StatusUnauthorized, jsonError(n.SecurityFailedMessage(), ""))
		return
	}

	if err := n.Dismiss(ctx, user.ID); err != nil {
		log.Error().Err(err).Str("notice", n.Key()).Msg("failed to dismiss notice")
		c.JSON(http.StatusInternalServerError, jsonError(err.Error(), installer.CodeInternal))
		return
	}

	if action.kind == actionInstall {
		outcome := h.install(ctx, user)
		if !outcome.OK() {
			log.Warn().
				Str("notice", n.Key()).
				Str("extension", h.companion).
				Str("code", outcome.Code).
				Str("message", outcome.Message).
				Msg("companion install failed")
			c.JSON(http.StatusInternalServerError, jsonError(outcome.Message, outcome.Code))
			return
		}
		log.Info().Str("notice", n.Key()).Str("extension", h.companion).Msg("companion installed and activated")
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// install runs the coordinator, turning a panic into an internal failure
func (h *NoticeHandler) install(ctx context.Context, user models.User) (outcome installer.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("extension", h.companion).Msg("install panicked")
			outcome = installer.Failure(installer.CodeInternal, fmt.Sprint(r))
		}
	}()
	return h.coordinator.InstallAndActivate(ctx, user, h.companion)
}

// jsonError is the failure envelope the notice script expects
func jsonError(message, code string) gin.H {
	data := gin.H{"message": message}
	if code != "" {
		data["code"] = code
	}
	return gin.H{"success": false, "data": data}
}
