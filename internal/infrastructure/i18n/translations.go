package i18n

import (
	"embed"
	"errors"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"spacyboard/internal/logging"
	"spacyboard/internal/ports/output"
)

//go:embed active.*.toml
var localeFS embed.FS

var _ output.Translator = (*Translator)(nil)

// Translator is a thin wrapper around go-i18n's Bundle/Localizer. Message
// ids double as notification and status template keys.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	logger          *zerolog.Logger
}

// NewTranslator builds a Translator backed by go-i18n using the given default
// locale (e.g. "fr"), loaded from the embedded active.*.toml files.
func NewTranslator(defaultLocale string, logger *zerolog.Logger) *Translator {
	log := logging.Component(logger, "i18n")

	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"active.fr.toml", "active.en.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			log.Error().Err(err).Str("file", file).Msg("i18n: failed to load messages")
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
		logger:          log,
	}
}

// T renders the message identified by key for the given locale.
// If the key/locale is not found, it falls back to the default locale,
// then finally to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if msg, ok := t.Lookup(locale, key, data); ok {
		return msg
	}
	return key
}

// Lookup is T without the key fallback: ok is false when neither the
// locale nor the default language has a message for key.
func (t *Translator) Lookup(locale, key string, data map[string]any) (string, bool) {
	if key == "" {
		return "", false
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) {
			t.logger.Warn().Err(err).Str("key", key).Strs("locales", languages).Msg("i18n: localize failed")
		}
		return "", false
	}
	return msg, true
}
