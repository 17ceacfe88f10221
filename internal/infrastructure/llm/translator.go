package llm

import (
	"context"
	"fmt"
	"strings"

	"ArticleRelay/internal/config"
	"ArticleRelay/internal/domain"
	"ArticleRelay/internal/ports"
)

// Completer is a single chat round trip.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

// Translator turns titles and abstracts into the configured language.
// Empty input and the "no content" sentinels never reach the model.
type Translator struct {
	completer Completer

	titlePrompt         string
	abstractPrompt      string
	titleTemperature    float64
	abstractTemperature float64
	titlePlaceholder    string
	abstractPlaceholder string
}

var _ ports.Translator = (*Translator)(nil)

// NewTranslator combines chat and translation settings. Empty prompts are
// derived from the target language.
func NewTranslator(completer Completer, chat config.ChatGPTConfig, tr config.TranslationConfig) *Translator {
	language := strings.TrimSpace(tr.Language)
	if language == "" {
		language = "Russian"
	}

	titlePrompt := strings.TrimSpace(chat.TitlePrompt)
	if titlePrompt == "" {
		titlePrompt = defaultTitlePrompt(language)
	}
	abstractPrompt := strings.TrimSpace(chat.AbstractPrompt)
	if abstractPrompt == "" {
		abstractPrompt = defaultAbstractPrompt(language)
	}

	return &Translator{
		completer:           completer,
		titlePrompt:         titlePrompt,
		abstractPrompt:      abstractPrompt,
		titleTemperature:    chat.TitleTemp(),
		abstractTemperature: chat.AbstractTemp(),
		titlePlaceholder:    tr.TitlePlaceholder,
		abstractPlaceholder: tr.AbstractPlaceholder,
	}
}

// TranslateTitle returns the translated title or the title placeholder.
func (t *Translator) TranslateTitle(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == domain.NoTitle {
		return t.titlePlaceholder, nil
	}
	return t.complete(ctx, t.titlePrompt, text, t.titleTemperature)
}

// TranslateAbstract returns the translated abstract or the abstract placeholder.
func (t *Translator) TranslateAbstract(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == domain.AbstractNotFound {
		return t.abstractPlaceholder, nil
	}
	return t.complete(ctx, t.abstractPrompt, text, t.abstractTemperature)
}

func (t *Translator) complete(ctx context.Context, system, text string, temperature float64) (string, error) {
	if t.completer == nil {
		return "", fmt.Errorf("translator has no completer")
	}
	out, err := t.completer.Complete(ctx, system, text, temperature)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return out, nil
}

func defaultTitlePrompt(language string) string {
	return fmt.Sprintf("You are a professional scientific translator. "+
		"Translate the article title into %s. "+
		"Reply with the translated title only, without quotes, labels or commentary.", language)
}

func defaultAbstractPrompt(language string) string {
	return fmt.Sprintf("You are a professional scientific translator. "+
		"Translate the article abstract into %s. "+
		"If the text contains a Highlights section, omit it entirely. "+
		"Do not start the answer with a label such as \"Abstract\" or \"Annotation\". "+
		"Reply with the translated abstract only, without commentary.", language)
}
