package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Fimeg/partnernotice/internal/installer"
	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCoordinator struct {
	outcome     installer.Outcome
	panicWith   any
	calls       int
	identifiers []string
}

func (f *fakeCoordinator) InstallAndActivate(ctx context.Context, user models.User, identifier string) installer.Outcome {
	f.calls++
	f.identifiers = append(f.identifiers, identifier)
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.outcome
}

type fakeLister struct {
	records map[string]models.Extension
	err     error
}

func (f fakeLister) ListExtensions(ctx context.Context) (map[string]models.Extension, error) {
	return f.records, f.err
}

var testAdmin = models.User{
	ID:       uuid.MustParse("8d1c3b4e-4b9a-4d4e-9a34-0d7f1a2b3c4d"),
	Username: "admin",
	Role:     models.RoleAdmin,
}

// withUser stands in for WebAuthMiddleware
func withUser(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.ID)
		c.Set(userKey, user)
		c.Next()
	}
}

func postForm(t *testing.T, router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
