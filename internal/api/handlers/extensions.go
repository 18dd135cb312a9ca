package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/Fimeg/partnernotice/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ExtensionLister lists the extension registry keyed by main file
type ExtensionLister interface {
	ListExtensions(ctx context.Context) (map[string]models.Extension, error)
}

// ExtensionHandler exposes the extension registry
type ExtensionHandler struct {
	extensions ExtensionLister
}

// NewExtensionHandler creates a new extension handler
func NewExtensionHandler(extensions ExtensionLister) *ExtensionHandler {
	return &ExtensionHandler{extensions: extensions}
}

// ListExtensions handles GET /admin/extensions. Results are ordered by
// slug, then newest version first.
func (h *ExtensionHandler) ListExtensions(c *gin.Context) {
	records, err := h.extensions.ListExtensions(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list extensions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list extensions"})
		return
	}

	listing := make([]models.ExtensionListing, 0, len(records))
	for _, ext := range records {
		listing = append(listing, models.ExtensionListing{
			Extension: ext,
			Active:    ext.Status.IsActive(),
		})
	}
	sort.Slice(listing, func(i, j int) bool {
		if listing[i].Slug != listing[j].Slug {
			return listing[i].Slug < listing[j].Slug
		}
		if cmp := utils.CompareVersions(listing[i].Version, listing[j].Version); cmp != 0 {
			return cmp > 0
		}
		return listing[i].File < listing[j].File
	})

	c.JSON(http.StatusOK, gin.H{
		"extensions": listing,
		"total":      len(listing),
	})
}
