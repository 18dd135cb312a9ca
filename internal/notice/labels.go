package notice

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Label formats. Arguments are the project name and the companion brand.
const (
	headerFormat       = "%[1]s + %[2]s = Awesomeness"
	mainContentFormat  = "We're excited to announce that %[1]s is partnering with the %[2]s library of Gutenberg patterns and templates to bring %[1]s users even more beautiful block patterns and templates! Install and activate the %[2]s plugin to receive access to the library. Note: this is an optional step and %[1]s will continue to work without %[2]s."
	installFormat      = "Install & Activate %[2]s"
	installingFormat   = "Installing..."
	reloadingFormat    = "Finished. Reloading..."
	dismissLabelFormat = "Dismiss %[2]s notice"
	securityFailed     = "The security check failed. Please refresh the page and try again."
)

func init() {
	for key, msg := range map[string]string{
		headerFormat:       "%[1]s + %[2]s = Großartig",
		installFormat:      "%[2]s installieren & aktivieren",
		installingFormat:   "Wird installiert...",
		reloadingFormat:    "Fertig. Seite wird neu geladen...",
		dismissLabelFormat: "%[2]s-Hinweis ausblenden",
		securityFailed:     "Die Sicherheitsprüfung ist fehlgeschlagen. Bitte lade die Seite neu und versuche es erneut.",
	} {
		message.SetString(language.German, key, msg)
	}
}

// Labels are the user facing strings of a notice
type Labels struct {
	Header       string `yaml:"header,omitempty"`
	MainContent  string `yaml:"main_content,omitempty"`
	Install      string `yaml:"install,omitempty"`
	Installing   string `yaml:"installing,omitempty"`
	Reloading    string `yaml:"reloading,omitempty"`
	DismissLabel string `yaml:"dismiss_label,omitempty"`
}

// DefaultLabels renders the default labels in the given language
func DefaultLabels(tag language.Tag, project, brand string) Labels {
	p := message.NewPrinter(tag)
	return Labels{
		Header:       p.Sprintf(headerFormat, project, brand),
		MainContent:  p.Sprintf(mainContentFormat, project, brand),
		Install:      p.Sprintf(installFormat, project, brand),
		Installing:   p.Sprintf(installingFormat),
		Reloading:    p.Sprintf(reloadingFormat),
		DismissLabel: p.Sprintf(dismissLabelFormat, project, brand),
	}
}

// SecurityFailedMessage is returned when an action token does not verify
func SecurityFailedMessage(tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf(securityFailed)
}

// Merge returns l with every non-empty field of overrides applied
func (l Labels) Merge(overrides Labels) Labels {
	pick := func(base, override string) string {
		if override != "" {
			return override
		}
		return base
	}
	return Labels{
		Header:       pick(l.Header, overrides.Header),
		MainContent:  pick(l.MainContent, overrides.MainContent),
		Install:      pick(l.Install, overrides.Install),
		Installing:   pick(l.Installing, overrides.Installing),
		Reloading:    pick(l.Reloading, overrides.Reloading),
		DismissLabel: pick(l.DismissLabel, overrides.DismissLabel),
	}
}
