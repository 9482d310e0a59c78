package notify

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Renderer turns a notification kind and its params into a localized message.
type Renderer struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
}

func NewRenderer(lang string) (*Renderer, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", f.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", f.Name(), err)
		}
	}

	return &Renderer{bundle: bundle, localizer: i18n.NewLocalizer(bundle, lang)}, nil
}

// Render falls back to the kind itself when no message is defined.
func (r *Renderer) Render(kind string, params map[string]string) string {
	msg, err := r.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    kind,
		TemplateData: params,
	})
	if err != nil {
		return kind
	}
	return msg
}
