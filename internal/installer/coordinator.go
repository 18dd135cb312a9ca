// Package installer installs and activates extensions from the public
// extension directory and normalizes installer failures into a single
// (code, message) outcome.
package installer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Fimeg/partnernotice/internal/authz"
	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/rs/zerolog/log"
)

// Directory lists installed extensions keyed by main file
type Directory interface {
	ListExtensions(ctx context.Context) (map[string]models.Extension, error)
}

// Installer installs the package at url. Every failure is reported through
// the skin; the return value only says whether the install succeeded.
type Installer interface {
	Install(ctx context.Context, url string, skin *Skin) bool
}

// Activator activates an installed extension by its main file
type Activator interface {
	Activate(ctx context.Context, file string, networkWide bool) error
}

// DirectoryFilter rewrites the registry listing before lookup
type DirectoryFilter func(map[string]models.Extension) map[string]models.Extension

// Coordinator resolves, installs and activates one extension per call
type Coordinator struct {
	directory    Directory
	installer    Installer
	activator    Activator
	authorizer   authz.Authorizer
	downloadHost string
	multisite    bool
	filters      []DirectoryFilter
}

// CoordinatorOption configures a Coordinator
type CoordinatorOption func(*Coordinator)

// WithMultisite marks the deployment as multi-tenant
func WithMultisite(multisite bool) CoordinatorOption {
	return func(c *Coordinator) {
		c.multisite = multisite
	}
}

// WithDownloadHost overrides the package download host
func WithDownloadHost(host string) CoordinatorOption {
	return func(c *Coordinator) {
		c.downloadHost = strings.TrimRight(host, "/")
	}
}

// WithDirectoryFilter adds a filter applied to every registry listing
func WithDirectoryFilter(filter DirectoryFilter) CoordinatorOption {
	return func(c *Coordinator) {
		c.filters = append(c.filters, filter)
	}
}

// NewCoordinator creates a coordinator over the given platform services
func NewCoordinator(directory Directory, installer Installer, activator Activator, authorizer authz.Authorizer, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		directory:    directory,
		installer:    installer,
		activator:    activator,
		authorizer:   authorizer,
		downloadHost: "https://downloads.wordpress.org",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DownloadURL returns the latest stable package URL for an identifier
func (c *Coordinator) DownloadURL(identifier string) string {
	return fmt.Sprintf("%s/plugin/%s.latest-stable.zip", c.downloadHost, identifier)
}

// InstallAndActivate installs the extension if it is missing and activates
// it. An extension that is already active is left untouched.
func (c *Coordinator) InstallAndActivate(ctx context.Context, user models.User, identifier string) Outcome {
	logger := log.With().Str("extension", identifier).Str("user", user.Username).Logger()

	ext, found, err := c.lookup(ctx, identifier)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read extension registry")
		return Failure(CodeInternal, "Could not read the extension registry.")
	}

	var messages []string
	if !found {
		outcome := c.install(ctx, user, identifier)
		if !outcome.OK() {
			logger.Warn().Str("code", outcome.Code).Str("reason", outcome.Message).Msg("extension install failed")
			return outcome
		}
		messages = outcome.Messages

		ext, found, err = c.lookup(ctx, identifier)
		if err != nil {
			logger.Error().Err(err).Msg("failed to read extension registry")
			return Failure(CodeInternal, "Could not read the extension registry.")
		}
		if !found {
			return Failure(CodeInstallError, "There was an error installing your plugin")
		}
	} else if ext.Status.IsActive() {
		logger.Debug().Str("status", string(ext.Status)).Msg("extension already active")
		return Success(nil)
	}

	if !c.authorizer.Can(user, authz.ActivatePlugins) {
		return Failure(CodeNotAllowed, "You are not allowed to activate plugins on this site.")
	}

	if err := c.activator.Activate(ctx, ext.File, false); err != nil {
		logger.Warn().Err(err).Str("file", ext.File).Msg("extension activation failed")
		return FailureFrom(err, CodeInstallError)
	}

	logger.Info().Str("file", ext.File).Msg("extension installed and activated")
	return Success(messages)
}

func (c *Coordinator) install(ctx context.Context, user models.User, identifier string) Outcome {
	if c.multisite && !c.authorizer.Can(user, authz.ManageNetwork) {
		return Failure(CodeNotAllowed, "You are not allowed to install plugins on this site.")
	}

	skin := NewSkin()
	url := c.DownloadURL(identifier)
	log.Info().Str("extension", identifier).Str("url", url).Msg("installing extension")

	if !c.installer.Install(ctx, url, skin) {
		code := skin.MainErrorCode()
		if code == CodeDownloadFailed {
			// Older clients expect no_package for a failed download.
			code = CodeNoPackage
		}
		message := skin.MainErrorMessage()
		if message == "" {
			message = defaultErrorMessage
		}
		return Failure(code, message)
	}

	return Success(skin.Messages())
}

func (c *Coordinator) lookup(ctx context.Context, identifier string) (models.Extension, bool, error) {
	extensions, err := c.directory.ListExtensions(ctx)
	if err != nil {
		return models.Extension{}, false, fmt.Errorf("failed to list extensions: %w", err)
	}
	for _, filter := range c.filters {
		extensions = filter(extensions)
	}

	// Listing order is by name, then file, so duplicate slugs resolve the same way every time
	var matches []string
	for file := range extensions {
		if models.SlugFromFile(file) == identifier {
			matches = append(matches, file)
		}
	}
	if len(matches) == 0 {
		return models.Extension{}, false, nil
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := extensions[matches[i]], extensions[matches[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return matches[i] < matches[j]
	})

	ext := extensions[matches[0]]
	if ext.File == "" {
		ext.File = matches[0]
	}
	return ext, true, nil
}
