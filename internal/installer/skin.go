package installer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const defaultErrorMessage = "An unknown error occurred during installation"

// feedbackPolicy keeps links, line breaks and emphasis; everything else is stripped
var feedbackPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.AllowElements("br", "em", "strong")
	return p
}()

var quoteEntities = strings.NewReplacer("&#39;", "'", "&#34;", `"`)

// restoreQuotes undoes the sanitizer's quote escaping in text, leaving
// tags and their attribute values as sanitized.
func restoreQuotes(s string) string {
	var b strings.Builder
	for s != "" {
		start := strings.IndexByte(s, '<')
		if start < 0 {
			b.WriteString(quoteEntities.Replace(s))
			break
		}
		b.WriteString(quoteEntities.Replace(s[:start]))
		end := strings.IndexByte(s[start:], '>')
		if end < 0 {
			b.WriteString(s[start:])
			break
		}
		b.WriteString(s[start : start+end+1])
		s = s[start+end+1:]
	}
	return b.String()
}

// Skin collects installer feedback for one install attempt and keeps the
// most meaningful error seen. The first specific error code wins; a later
// process_failed never replaces it.
type Skin struct {
	code     string
	message  string
	recorded bool // any error code recorded, including process_failed
	specific bool // a code other than process_failed recorded
	messages []string
}

// NewSkin creates a skin with the default install_error code and message
func NewSkin() *Skin {
	return &Skin{
		code:    CodeInstallError,
		message: defaultErrorMessage,
	}
}

// Feedback records one installer event. fb may be an error (its code is
// extracted when it has one), a string message or phrase code, or any
// other structured payload, which is ignored. args fill %-directives.
func (s *Skin) Feedback(fb any, args ...any) {
	var text string
	var codes []string
	switch v := fb.(type) {
	case error:
		code := codeOf(v)
		if code != "" {
			codes = append(codes, code)
		}
		text = messageOf(v)
		if p, ok := phrases[code]; ok && text == "" {
			text = p.text
		}
	case string:
		text = v
	default:
		return
	}

	if p, ok := phrases[text]; ok {
		if p.error {
			codes = append(codes, text)
		}
		text = p.text
	}

	if strings.Contains(text, "%") && len(args) > 0 {
		text = fmt.Sprintf(text, args...)
	}
	text = restoreQuotes(feedbackPolicy.Sanitize(strings.TrimSpace(text)))

	for _, code := range codes {
		s.record(code, text)
	}
	s.messages = append(s.messages, text)
}

// Error records a platform error; nil is ignored
func (s *Skin) Error(err error) {
	if err != nil {
		s.Feedback(err)
	}
}

func (s *Skin) record(code, message string) {
	if code == CodeProcessFailed {
		if s.recorded {
			return
		}
	} else {
		if s.specific {
			return
		}
		s.specific = true
	}
	s.recorded = true
	s.code = code
	if message != "" {
		s.message = message
	}
}

// MainErrorCode returns the recorded error code
func (s *Skin) MainErrorCode() string {
	return s.code
}

// MainErrorMessage returns the recorded error message
func (s *Skin) MainErrorMessage() string {
	return s.message
}

// Messages returns the sanitized transcript of every feedback event
func (s *Skin) Messages() []string {
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

type coded interface {
	ErrorCode() string
}

func codeOf(err error) string {
	var c coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

func messageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
