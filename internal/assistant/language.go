package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/rs/zerolog/log"
)

// Translator converts text between two ISO 639-1 languages.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// DefaultLanguages are detected when no other set is configured.
var DefaultLanguages = []string{"en", "bn"}

// Normalizer brings user input into the canonical language the index was
// built in, and takes answers back to the user's language.
type Normalizer struct {
	canonical  string
	translator Translator
	options    whatlanggo.Options
}

// NewNormalizer with a nil translator passes every text through unchanged.
// Detection only chooses between languages, given as ISO 639-1 codes, and
// the canonical one; none means DefaultLanguages.
func NewNormalizer(canonical string, translator Translator, languages ...string) *Normalizer {
	if canonical == "" {
		canonical = "en"
	}
	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	want := map[string]bool{canonical: true}
	for _, code := range languages {
		want[strings.ToLower(strings.TrimSpace(code))] = true
	}
	whitelist := make(map[whatlanggo.Lang]bool)
	for lang := range whatlanggo.Langs {
		if want[lang.Iso6391()] {
			whitelist[lang] = true
		}
	}

	return &Normalizer{
		canonical:  canonical,
		translator: translator,
		options:    whatlanggo.Options{Whitelist: whitelist},
	}
}

func (n *Normalizer) Canonical() string { return n.canonical }

// Detect returns the ISO 639-1 code of text among the supported languages.
// Unreliable detections count as the canonical language so short inputs
// are never mistranslated.
func (n *Normalizer) Detect(text string) string {
	info := whatlanggo.DetectWithOptions(text, n.options)
	// single-language scripts such as Bengali bypass the whitelist
	if !info.IsReliable() || !n.options.Whitelist[info.Lang] {
		return n.canonical
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return n.canonical
	}
	return code
}

// ToCanonical returns text in the canonical language and the language it
// was written in.
func (n *Normalizer) ToCanonical(ctx context.Context, text string) (string, string, error) {
	lang := n.Detect(text)
	if lang == n.canonical || n.translator == nil {
		return text, n.canonical, nil
	}

	out, err := n.translator.Translate(ctx, text, lang, n.canonical)
	if err != nil {
		return "", lang, fmt.Errorf("translate input from %s: %w", lang, err)
	}
	log.Debug().Str("from", lang).Str("to", n.canonical).Msg("input translated")
	return strings.TrimSpace(out), lang, nil
}

// FromCanonical translates a canonical-language answer into lang.
func (n *Normalizer) FromCanonical(ctx context.Context, text, lang string) (string, error) {
	if lang == "" || lang == n.canonical || n.translator == nil {
		return text, nil
	}

	out, err := n.translator.Translate(ctx, text, n.canonical, lang)
	if err != nil {
		return "", fmt.Errorf("translate answer to %s: %w", lang, err)
	}
	return strings.TrimSpace(out), nil
}
