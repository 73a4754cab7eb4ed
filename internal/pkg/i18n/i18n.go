package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

var (
	mu     sync.RWMutex
	bundle *goi18n.Bundle
)

// Init builds the bundle from the embedded English and Indonesian messages.
// It is safe to call more than once.
func Init() {
	b := goi18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, f := range []string{"locales/active.en.json", "locales/active.id.json"} {
		if _, err := b.LoadMessageFileFS(locales, f); err != nil {
			panic(err)
		}
	}

	mu.Lock()
	bundle = b
	mu.Unlock()
}

// Load adds an extra message file from disk, e.g. a dealer specific override.
func Load(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if bundle == nil {
		return nil
	}
	_, err := bundle.LoadMessageFile(path)
	return err
}

// Localize renders messageID for the Accept-Language value. It falls back to
// defaultMessage when the id is unknown or the bundle is not initialised.
func Localize(acceptLanguage, messageID, defaultMessage string, data map[string]interface{}) string {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b == nil || messageID == "" {
		return defaultMessage
	}

	loc := goi18n.NewLocalizer(b, acceptLanguage)
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
		DefaultMessage: &goi18n.Message{
			ID:    messageID,
			Other: defaultMessage,
		},
	})
	if err != nil || msg == "" {
		return defaultMessage
	}
	return msg
}
