package installer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/rs/zerolog/log"
)

// Registrar records a freshly installed extension in the registry
type Registrar interface {
	UpsertExtension(ctx context.Context, ext *models.Extension) error
}

// PluginUpgrader downloads extension packages, unpacks them into the
// extension directory and registers the result as inactive.
type PluginUpgrader struct {
	pluginDir  string
	registrar  Registrar
	httpClient *http.Client
}

// UpgraderOption configures a PluginUpgrader
type UpgraderOption func(*PluginUpgrader)

// WithHTTPClient overrides the client used for package downloads
func WithHTTPClient(client *http.Client) UpgraderOption {
	return func(u *PluginUpgrader) {
		u.httpClient = client
	}
}

// NewPluginUpgrader creates an upgrader installing into pluginDir
func NewPluginUpgrader(pluginDir string, registrar Registrar, opts ...UpgraderOption) *PluginUpgrader {
	u := &PluginUpgrader{
		pluginDir:  pluginDir,
		registrar:  registrar,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Install downloads, unpacks and registers the package at url
func (u *PluginUpgrader) Install(ctx context.Context, url string, skin *Skin) bool {
	if err := u.checkFilesystem(); err != nil {
		log.Warn().Err(err).Str("dir", u.pluginDir).Msg("extension directory not writable")
		skin.Feedback("fs_unavailable")
		skin.Feedback(CodeProcessFailed)
		return false
	}

	workDir, err := os.MkdirTemp(u.pluginDir, ".upgrade-")
	if err != nil {
		skin.Error(NewError("mkdir_failed", fmt.Sprintf("Could not create directory. %v", err)))
		skin.Feedback(CodeProcessFailed)
		return false
	}
	defer os.RemoveAll(workDir)

	skin.Feedback("downloading_package", url)
	archivePath, err := u.download(ctx, url, workDir)
	if err != nil {
		skin.Error(err)
		skin.Feedback(CodeProcessFailed)
		return false
	}

	skin.Feedback("unpack_package")
	unpacked := filepath.Join(workDir, "unpacked")
	if err := unpack(archivePath, unpacked); err != nil {
		skin.Error(err)
		skin.Feedback(CodeProcessFailed)
		return false
	}

	skin.Feedback("installing_package")
	ext, err := u.installFolder(ctx, unpacked)
	if err != nil {
		skin.Error(err)
		skin.Feedback(CodeProcessFailed)
		return false
	}

	skin.Feedback("process_success_specific", ext.Name, ext.Version)
	log.Info().Str("file", ext.File).Str("version", ext.Version).Msg("extension package installed")
	return true
}

func (u *PluginUpgrader) checkFilesystem() error {
	if err := os.MkdirAll(u.pluginDir, 0755); err != nil {
		return fmt.Errorf("failed to create extension directory: %w", err)
	}
	probe, err := os.CreateTemp(u.pluginDir, ".probe-")
	if err != nil {
		return fmt.Errorf("failed to write to extension directory: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

func (u *PluginUpgrader) download(ctx context.Context, url, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", NewError(CodeDownloadFailed, fmt.Sprintf("Download failed. %v", err))
	}
	req.Header.Set("User-Agent", "partnernotice-upgrader")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", NewError(CodeDownloadFailed, fmt.Sprintf("Download failed. %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", NewError(CodeDownloadFailed, fmt.Sprintf("Download failed. %s", http.StatusText(resp.StatusCode)))
	}

	destPath := filepath.Join(destDir, "package.zip")
	f, err := os.Create(destPath)
	if err != nil {
		return "", NewError("fs_error", fmt.Sprintf("Filesystem error. %v", err))
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", NewError(CodeDownloadFailed, fmt.Sprintf("Download failed. %v", err))
	}
	return destPath, nil
}

func unpack(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return NewError("incompatible_archive", "The package could not be installed.")
	}
	defer r.Close()

	if len(r.File) == 0 {
		return NewError("no_files", "The package contains no files.")
	}

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(target, root) {
			return NewError("incompatible_archive", fmt.Sprintf("The package could not be installed. Illegal path %s", f.Name))
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return NewError("mkdir_failed", fmt.Sprintf("Could not create directory. %s", f.Name))
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return NewError("mkdir_failed", fmt.Sprintf("Could not create directory. %s", filepath.Dir(f.Name)))
		}
		if err := extractFile(f, target); err != nil {
			return NewError("incompatible_archive", fmt.Sprintf("Could not copy file. %s", f.Name))
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// installFolder moves the unpacked package into the extension directory and registers it
func (u *PluginUpgrader) installFolder(ctx context.Context, unpacked string) (*models.Extension, error) {
	source, err := packageRoot(unpacked)
	if err != nil {
		return nil, err
	}

	folder := filepath.Base(source)
	mainFile, headers, err := findMainFile(source)
	if err != nil {
		return nil, err
	}

	dest := filepath.Join(u.pluginDir, folder)
	if _, err := os.Stat(dest); err == nil {
		return nil, NewError("folder_exists", "Destination folder already exists.")
	}
	if err := os.Rename(source, dest); err != nil {
		return nil, NewError("fs_error", fmt.Sprintf("Filesystem error. %v", err))
	}

	now := time.Now().UTC()
	ext := &models.Extension{
		File:        folder + "/" + mainFile,
		Slug:        folder,
		Name:        headers.Name,
		TextDomain:  headers.TextDomain,
		Version:     headers.Version,
		Status:      models.ExtensionStatusInactive,
		InstalledAt: now,
		UpdatedAt:   now,
	}
	if err := u.registrar.UpsertExtension(ctx, ext); err != nil {
		os.RemoveAll(dest)
		return nil, NewError(CodeInstallError, fmt.Sprintf("Could not register the extension. %v", err))
	}
	return ext, nil
}

// packageRoot returns the single top-level folder of an unpacked package
func packageRoot(unpacked string) (string, error) {
	entries, err := os.ReadDir(unpacked)
	if err != nil {
		return "", NewError("fs_error", fmt.Sprintf("Filesystem error. %v", err))
	}

	var dirs []os.DirEntry
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), "__MACOSX") {
			dirs = append(dirs, e)
		}
	}
	if len(dirs) != 1 {
		return "", NewError("incompatible_archive", "The package could not be installed.")
	}
	return filepath.Join(unpacked, dirs[0].Name()), nil
}

// findMainFile returns the first top-level .php file declaring an extension name
func findMainFile(dir string) (string, Headers, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", Headers{}, NewError("fs_error", fmt.Sprintf("Filesystem error. %v", err))
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".php" {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		headers, ok, err := ReadHeaders(f)
		f.Close()
		if err == nil && ok {
			return e.Name(), headers, nil
		}
	}
	return "", Headers{}, NewError("no_plugins_found", "No valid plugins were found.")
}
