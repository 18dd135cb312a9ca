package installer

import (
	"io"
	"regexp"
	"strings"

	"github.com/Fimeg/partnernotice/internal/utils"
)

// headerReadLimit bounds how much of a main file is scanned for headers
const headerReadLimit = 8 * 1024

// Headers are the metadata fields declared in an extension's main file comment block
type Headers struct {
	Name       string
	Version    string
	TextDomain string
}

var headerPatterns = map[string]*regexp.Regexp{
	"Plugin Name": headerPattern("Plugin Name"),
	"Version":     headerPattern("Version"),
	"Text Domain": headerPattern("Text Domain"),
}

func headerPattern(field string) *regexp.Regexp {
	return regexp.MustCompile(`(?mi)^(?:[ \t]*<\?php)?[ \t/*#@]*` + regexp.QuoteMeta(field) + `:(.*)$`)
}

// ReadHeaders parses the header block of a main file. ok is false when the
// file declares no extension name.
func ReadHeaders(r io.Reader) (Headers, bool, error) {
	buf, err := io.ReadAll(io.LimitReader(r, headerReadLimit))
	if err != nil {
		return Headers{}, false, err
	}
	data := strings.ReplaceAll(string(buf), "\r", "\n")

	h := Headers{
		Name:       headerValue(data, "Plugin Name"),
		Version:    utils.NormalizeVersion(headerValue(data, "Version")),
		TextDomain: headerValue(data, "Text Domain"),
	}
	return h, h.Name != "", nil
}

func headerValue(data, field string) string {
	m := headerPatterns[field].FindStringSubmatch(data)
	if m == nil {
		return ""
	}
	value := strings.TrimSpace(m[1])
	value = strings.TrimSpace(strings.TrimSuffix(value, "*/"))
	return value
}
