package output

// Translator exposes a minimal i18n contract for user-facing messages.
// Implementations provide message lookup + templating for a given locale.
type Translator interface {
	// T renders the message identified by key for the given locale, or the
	// key itself when no message exists.
	T(locale, key string, data map[string]any) string
	// Lookup renders the message identified by key; ok is false when no
	// template exists for key.
	Lookup(locale, key string, data map[string]any) (msg string, ok bool)
}
