package i18n

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTranslator(t *testing.T, locale string) *Translator {
	t.Helper()
	nop := zerolog.Nop()
	return NewTranslator(locale, &nop)
}

func TestTranslator_RendersTemplateData(t *testing.T) {
	tr := newTestTranslator(t, "en")

	msg, ok := tr.Lookup("en", "notification.session-scheduled", map[string]any{"Title": "Go", "Room": "R1", "Time": "10:00"})

	require.True(t, ok)
	assert.Equal(t, `"Go" is scheduled in R1 at 10:00.`, msg)
}

func TestTranslator_LocaleThenDefault(t *testing.T) {
	tr := newTestTranslator(t, "en")

	assert.Equal(t, "Personne n'attend.", tr.T("fr", "status.nobody-in-queue", nil))
	assert.Equal(t, "Nobody is waiting.", tr.T("de", "status.nobody-in-queue", nil))
}

func TestTranslator_MissingKey(t *testing.T) {
	tr := newTestTranslator(t, "fr")

	_, ok := tr.Lookup("fr", "notification.coffee-break", nil)
	assert.False(t, ok)
	assert.Equal(t, "notification.coffee-break", tr.T("fr", "notification.coffee-break", nil))
	assert.Equal(t, "", tr.T("fr", "", nil))
}

func TestTranslator_BadDefaultLocale(t *testing.T) {
	tr := newTestTranslator(t, "not a locale!")
	assert.Equal(t, "Nobody is waiting.", tr.T("", "status.nobody-in-queue", nil))
}
