package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Fimeg/partnernotice/internal/models"
)

// ExtensionStore reads and updates registry records
type ExtensionStore interface {
	GetExtension(ctx context.Context, file string) (*models.Extension, error)
	SetExtensionStatus(ctx context.Context, file string, status models.ExtensionStatus) error
}

// RegistryActivator activates extensions whose main file exists on disk
type RegistryActivator struct {
	store     ExtensionStore
	pluginDir string
}

// NewRegistryActivator creates an activator over the registry store
func NewRegistryActivator(store ExtensionStore, pluginDir string) *RegistryActivator {
	return &RegistryActivator{store: store, pluginDir: pluginDir}
}

// Activate marks the extension active, network wide when requested
func (a *RegistryActivator) Activate(ctx context.Context, file string, networkWide bool) error {
	ext, err := a.store.GetExtension(ctx, file)
	if errors.Is(err, models.ErrExtensionNotFound) {
		return NewError("plugin_not_found", "Plugin file does not exist.")
	}
	if err != nil {
		return fmt.Errorf("failed to load extension %s: %w", file, err)
	}

	if _, err := os.Stat(filepath.Join(a.pluginDir, filepath.FromSlash(ext.File))); err != nil {
		return NewError("plugin_not_found", "Plugin file does not exist.")
	}

	status := models.ExtensionStatusActive
	if networkWide {
		status = models.ExtensionStatusNetworkActive
	}
	if ext.Status == status {
		return nil
	}

	if err := a.store.SetExtensionStatus(ctx, ext.File, status); err != nil {
		return fmt.Errorf("failed to activate extension %s: %w", file, err)
	}
	return nil
}
