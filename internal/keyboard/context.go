package keyboard

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Device is the kind of device the keyboard runs on.
type Device uint8

const (
	DevicePhone Device = iota
	DevicePad
)

// String returns the device name.
func (d Device) String() string {
	if d == DevicePad {
		return "pad"
	}
	return "phone"
}

// ParseDevice parses "phone" or "pad".
func ParseDevice(s string) (Device, error) {
	switch strings.ToLower(s) {
	case "phone", "":
		return DevicePhone, nil
	case "pad":
		return DevicePad, nil
	default:
		return DevicePhone, fmt.Errorf("unknown device: %q", s)
	}
}

// Autocapitalization is the host text field's capitalization preference.
type Autocapitalization uint8

const (
	AutocapitalizeSentences Autocapitalization = iota
	AutocapitalizeWords
	AutocapitalizeAllCharacters
	AutocapitalizeNone
)

// String returns the preference name.
func (a Autocapitalization) String() string {
	switch a {
	case AutocapitalizeSentences:
		return "sentences"
	case AutocapitalizeWords:
		return "words"
	case AutocapitalizeAllCharacters:
		return "allCharacters"
	case AutocapitalizeNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseAutocapitalization parses a preference name.
func ParseAutocapitalization(s string) (Autocapitalization, error) {
	switch strings.ToLower(s) {
	case "sentences", "":
		return AutocapitalizeSentences, nil
	case "words":
		return AutocapitalizeWords, nil
	case "allcharacters", "all":
		return AutocapitalizeAllCharacters, nil
	case "none":
		return AutocapitalizeNone, nil
	default:
		return AutocapitalizeSentences, fmt.Errorf("unknown autocapitalization: %q", s)
	}
}

// Context is the mutable state of one typing session. It is owned by the
// hosting session; the dispatcher holds a reference and changes
// KeyboardType through it.
type Context struct {
	KeyboardType       Type
	Locale             language.Tag
	Locales            []language.Tag
	Device             Device
	Autocapitalization Autocapitalization
	Proxy              TextDocumentProxy
}

// NewContext returns an English phone context editing proxy.
func NewContext(proxy TextDocumentProxy) *Context {
	return &Context{
		KeyboardType:       Alphabetic(Lowercased),
		Locale:             language.English,
		Locales:            []language.Tag{language.English},
		Device:             DevicePhone,
		Autocapitalization: AutocapitalizeSentences,
		Proxy:              proxy,
	}
}

// HasMultipleLocales reports whether NextLocale has anything to cycle.
func (c *Context) HasMultipleLocales() bool {
	return len(c.Locales) > 1
}

// SelectNextLocale moves Locale to the entry after it in Locales, wrapping
// around. A locale missing from Locales is replaced by the first entry.
func (c *Context) SelectNextLocale() language.Tag {
	if len(c.Locales) == 0 {
		return c.Locale
	}
	next := c.Locales[0]
	for i, tag := range c.Locales {
		if tag == c.Locale {
			next = c.Locales[(i+1)%len(c.Locales)]
			break
		}
	}
	c.Locale = next
	return next
}

// ParseLocales parses BCP 47 tags, failing on the first invalid one.
func ParseLocales(ids []string) ([]language.Tag, error) {
	tags := make([]language.Tag, 0, len(ids))
	for _, id := range ids {
		tag, err := language.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", id, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
