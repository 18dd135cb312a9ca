package models

import (
	"errors"
	"path"
	"regexp"
	"time"
)

// ExtensionStatus is the activation state of an installed extension
type ExtensionStatus string

const (
	ExtensionStatusInactive      ExtensionStatus = "inactive"
	ExtensionStatusActive        ExtensionStatus = "active"
	ExtensionStatusNetworkActive ExtensionStatus = "network-active"
)

// IsActive reports whether the extension runs on this site, in any tenant scope
func (s ExtensionStatus) IsActive() bool {
	return s == ExtensionStatusActive || s == ExtensionStatusNetworkActive
}

// Extension is the registry record for an installed extension.
// File is the main file relative to the extension directory, e.g. "hello-dolly/hello.php".
type Extension struct {
	File        string          `json:"file" db:"file"`
	Slug        string          `json:"slug" db:"slug"`
	Name        string          `json:"name" db:"name"`
	TextDomain  string          `json:"text_domain" db:"text_domain"`
	Version     string          `json:"version" db:"version"`
	Status      ExtensionStatus `json:"status" db:"status"`
	InstalledAt time.Time       `json:"installed_at" db:"installed_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ExtensionListing is the registry view returned to the dashboard
type ExtensionListing struct {
	Extension
	Active bool `json:"active"`
}

var singleFileExtension = regexp.MustCompile(`^(.+)\.php$`)

// SlugFromFile derives the extension slug from its main file path.
// "hello-dolly/hello.php" yields "hello-dolly", "hello.php" yields "hello".
func SlugFromFile(file string) string {
	slug := path.Dir(file)
	if slug == "." {
		slug = singleFileExtension.ReplaceAllString(file, "$1")
	}
	return slug
}

// ErrExtensionNotFound is returned when no registry record matches
var ErrExtensionNotFound = errors.New("extension not found")
