package utils

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// NormalizeVersion returns the canonical semantic form of an extension
// version header ("1.2" becomes "1.2.0"). Values that are not versions are
// returned trimmed but otherwise unchanged.
func NormalizeVersion(raw string) string {
	raw = strings.TrimSpace(raw)
	v, err := semver.NewVersion(raw)
	if err != nil {
		return raw
	}
	return v.String()
}

// CompareVersions compares two version strings
// Returns:
//   -1 if version1 < version2
//    0 if version1 == version2
//    1 if version1 > version2
//
// Unparseable versions sort before parseable ones and compare lexically
// among themselves.
func CompareVersions(version1, version2 string) int {
	v1, err1 := semver.NewVersion(version1)
	v2, err2 := semver.NewVersion(version2)

	switch {
	case err1 != nil && err2 != nil:
		return strings.Compare(version1, version2)
	case err1 != nil:
		return -1
	case err2 != nil:
		return 1
	}
	return v1.Compare(v2)
}
