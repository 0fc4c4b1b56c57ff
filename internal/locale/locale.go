package locale

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eltovar/DeiiwoCoffee/internal/storage"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// StorageKey holds the two-letter language preference.
const StorageKey = "deiiwo_lang"

type Lang string

const (
	Spanish Lang = "es"
	English Lang = "en"

	Default = Spanish
)

var ErrUnsupported = errors.New("unsupported language")

func Parse(s string) (Lang, error) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case Spanish:
		return Spanish, nil
	case English:
		return English, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// Normalize maps anything unrecognised to the default language.
func Normalize(s string) Lang {
	l, err := Parse(s)
	if err != nil {
		return Default
	}
	return l
}

// Toggle returns the other supported language.
func (l Lang) Toggle() Lang {
	if l == English {
		return Spanish
	}
	return English
}

// Preference reads and writes the language choice.
type Preference struct {
	storage storage.Storage
}

func NewPreference(st storage.Storage) *Preference {
	return &Preference{storage: st}
}

// Get returns the stored language, or the default when nothing valid is stored.
func (p *Preference) Get(ctx context.Context) Lang {
	raw, err := p.storage.Get(ctx, StorageKey)
	if err != nil {
		return Default
	}
	return Normalize(string(raw))
}

func (p *Preference) Set(ctx context.Context, l Lang) error {
	if _, err := Parse(string(l)); err != nil {
		return err
	}
	if err := p.storage.Set(ctx, StorageKey, []byte(l)); err != nil {
		return fmt.Errorf("persist language: %w", err)
	}
	return nil
}

// FormatCOP renders an amount of pesos with Colombian digit grouping, e.g. "$150.000".
func FormatCOP(amount int64) string {
	p := message.NewPrinter(language.MustParse("es-CO"))
	return p.Sprintf("$%d", amount)
}
