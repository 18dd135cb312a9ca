package installer

import (
	"archive/zip"
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/Fimeg/partnernotice/internal/authz"
	"github.com/Fimeg/partnernotice/internal/models"
)

// memRegistry is an in-memory registry implementing every store interface
type memRegistry struct {
	mu   sync.Mutex
	exts map[string]models.Extension
	err  error
}

func newMemRegistry(exts ...models.Extension) *memRegistry {
	r := &memRegistry{exts: make(map[string]models.Extension)}
	for _, e := range exts {
		r.exts[e.File] = e
	}
	return r
}

func (r *memRegistry) ListExtensions(ctx context.Context) (map[string]models.Extension, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make(map[string]models.Extension, len(r.exts))
	for k, v := range r.exts {
		out[k] = v
	}
	return out, nil
}

func (r *memRegistry) UpsertExtension(ctx context.Context, ext *models.Extension) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exts[ext.File] = *ext
	return nil
}

func (r *memRegistry) GetExtension(ctx context.Context, file string) (*models.Extension, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ext, ok := r.exts[file]
	if !ok {
		return nil, models.ErrExtensionNotFound
	}
	return &ext, nil
}

func (r *memRegistry) SetExtensionStatus(ctx context.Context, file string, status models.ExtensionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ext, ok := r.exts[file]
	if !ok {
		return models.ErrExtensionNotFound
	}
	ext.Status = status
	r.exts[file] = ext
	return nil
}

func (r *memRegistry) status(file string) models.ExtensionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exts[file].Status
}

// fakeInstaller replays scripted feedback into the skin
type fakeInstaller struct {
	calls    int
	urls     []string
	ok       bool
	feedback []any
}

func (f *fakeInstaller) Install(ctx context.Context, url string, skin *Skin) bool {
	f.calls++
	f.urls = append(f.urls, url)
	for _, fb := range f.feedback {
		skin.Feedback(fb)
	}
	return f.ok
}

type fakeActivator struct {
	calls int
	files []string
	err   error
}

func (f *fakeActivator) Activate(ctx context.Context, file string, networkWide bool) error {
	f.calls++
	f.files = append(f.files, file)
	return f.err
}

// capabilities grants a fixed capability set to every user
type capabilities map[authz.Capability]bool

func (c capabilities) Can(user models.User, capability authz.Capability) bool {
	return c[capability]
}

func allCapabilities() capabilities {
	return capabilities{authz.ActivatePlugins: true, authz.ManageNetwork: true}
}

// buildPackage creates a zip archive holding files under folder/
func buildPackage(t *testing.T, folder string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(folder + "/" + name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const samplePluginMain = `<?php
/**
 * Plugin Name: Sample Plugin
 * Version: 2.1.0
 * Text Domain: sample-plugin
 */
`
