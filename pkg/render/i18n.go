package render

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/goliatone/go-formengine/pkg/uischema"
)

const (
	labelKeyHint       = "labelKey"
	titleKeyHint       = "titleKey"
	descriptionKeyHint = "descriptionKey"
	placeholderKeyHint = "placeholderKey"
)

var (
	// ErrMissingTranslator is passed to the missing handler when no
	// translator is configured.
	ErrMissingTranslator = errors.New("render: translator is not configured")
	// ErrMissingTranslation reports a key the translator does not know.
	ErrMissingTranslation = errors.New("render: missing translation")
)

// Translator resolves message keys for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides the text used when a key cannot be
// translated.
type MissingTranslationHandler func(locale, key, fallback string, err error) string

func missingTranslationDefault(_, key, fallback string, _ error) string {
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

// Localizer translates the `*Key` hints carried in UI-schema extras into
// labels, titles, descriptions and placeholders. Option labels are looked
// up as keys and kept verbatim when unknown. A nil Localizer is a no-op.
type Localizer struct {
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}

func (l *Localizer) props(p uischema.Props) uischema.Props {
	if l == nil || len(p.Extra) == 0 {
		return p
	}
	if key := hint(p.Extra, labelKeyHint); key != "" {
		p.Label = l.translate(key, p.Label)
	}
	if key := hint(p.Extra, titleKeyHint); key != "" {
		p.Title = l.translate(key, p.Title)
	}
	if key := hint(p.Extra, descriptionKeyHint); key != "" {
		p.Description = l.translate(key, p.Description)
	}
	if key := hint(p.Extra, placeholderKeyHint); key != "" {
		p.Placeholder = l.translate(key, p.Placeholder)
	}
	return p
}

func (l *Localizer) text(s string) string {
	if l == nil || l.Translator == nil {
		return s
	}
	if out, err := l.Translator.Translate(l.Locale, s); err == nil && strings.TrimSpace(out) != "" {
		return out
	}
	return s
}

func (l *Localizer) translate(key, fallback string) string {
	onMissing := l.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	if l.Translator == nil {
		return onMissing(l.Locale, key, fallback, ErrMissingTranslator)
	}
	out, err := l.Translator.Translate(l.Locale, key)
	if err == nil && strings.TrimSpace(out) != "" {
		return out
	}
	return onMissing(l.Locale, key, fallback, err)
}

func hint(extra map[string]any, key string) string {
	s, _ := extra[key].(string)
	return strings.TrimSpace(s)
}

// CatalogTranslator is a Translator backed by an x/text message catalog.
type CatalogTranslator struct {
	builder *catalog.Builder
}

// NewCatalogTranslator returns an empty catalog-backed translator.
func NewCatalogTranslator() *CatalogTranslator {
	return &CatalogTranslator{builder: catalog.NewBuilder()}
}

// Set registers msg for key in locale.
func (c *CatalogTranslator) Set(locale, key, msg string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("render: locale %q: %w", locale, err)
	}
	return c.builder.SetString(tag, key, msg)
}

// Translate formats key for locale. Unknown keys yield ErrMissingTranslation.
func (c *CatalogTranslator) Translate(locale, key string, args ...any) (string, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	printer := message.NewPrinter(tag, message.Catalog(c.builder))
	out := printer.Sprintf(key, args...)
	if out == key {
		return "", fmt.Errorf("%w: %s", ErrMissingTranslation, key)
	}
	return out, nil
}
