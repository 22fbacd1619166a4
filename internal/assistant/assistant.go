package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// RefusalMessage is returned instead of an answer for non-medical input.
const RefusalMessage = "Sorry, I can only answer medical-related questions."

var (
	ErrEmptyInput       = errors.New("no input provided")
	ErrVoiceUnavailable = errors.New("voice input is not configured")
	ErrImageUnavailable = errors.New("image input is not configured")
)

// Gate decides whether a canonical-language text may reach the pipeline.
type Gate interface {
	IsMedical(ctx context.Context, text string) (bool, error)
}

// Answerer runs the retrieval and answer pipeline.
type Answerer interface {
	AnswerQuery(ctx context.Context, query string) (string, error)
}

type Describer interface {
	DescribeImage(ctx context.Context, image []byte, mimeType, question string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Reply is what an adapter hands back to the presentation layer.
type Reply struct {
	// Query is the canonical-language text that was classified.
	Query    string
	Language string
	Answer   string
	Refused  bool

	Transcript  string
	Description string
}

// Assistant turns raw text, voice and image input into answers. Every
// input passes the gate before the pipeline is invoked.
type Assistant struct {
	gate        Gate
	answerer    Answerer
	normalizer  *Normalizer
	describer   Describer
	transcriber Transcriber
}

type Option func(*Assistant)

func WithDescriber(d Describer) Option {
	return func(a *Assistant) { a.describer = d }
}

func WithTranscriber(t Transcriber) Option {
	return func(a *Assistant) { a.transcriber = t }
}

func New(gate Gate, answerer Answerer, normalizer *Normalizer, opts ...Option) *Assistant {
	if normalizer == nil {
		normalizer = NewNormalizer("", nil)
	}
	a := &Assistant{gate: gate, answerer: answerer, normalizer: normalizer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assistant) HasVoice() bool { return a.transcriber != nil }

func (a *Assistant) HasImage() bool { return a.describer != nil }

// AskText answers typed input in the language it was written in.
func (a *Assistant) AskText(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	return a.ask(ctx, text)
}

// AskVoice transcribes audio and then behaves like AskText.
func (a *Assistant) AskVoice(ctx context.Context, audio []byte, mimeType string) (*Reply, error) {
	if a.transcriber == nil {
		return nil, ErrVoiceUnavailable
	}
	if len(audio) == 0 {
		return nil, ErrEmptyInput
	}

	transcript, err := a.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, fmt.Errorf("transcribe: %w", ErrEmptyInput)
	}
	log.Debug().Int("transcript_len", len(transcript)).Msg("audio transcribed")

	reply, err := a.ask(ctx, transcript)
	if err != nil {
		return nil, err
	}
	reply.Transcript = transcript
	return reply, nil
}

// AskImage describes the image and uses the description as the query.
// The answer stays in the canonical language.
func (a *Assistant) AskImage(ctx context.Context, image []byte, mimeType, question string) (*Reply, error) {
	if a.describer == nil {
		return nil, ErrImageUnavailable
	}
	if len(image) == 0 {
		return nil, ErrEmptyInput
	}

	description, err := a.describer.DescribeImage(ctx, image, mimeType, strings.TrimSpace(question))
	if err != nil {
		return nil, fmt.Errorf("describe image: %w", err)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("describe image: %w", ErrEmptyInput)
	}

	reply := &Reply{
		Query:       description,
		Language:    a.normalizer.Canonical(),
		Description: description,
	}
	if err := a.answer(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (a *Assistant) ask(ctx context.Context, text string) (*Reply, error) {
	query, lang, err := a.normalizer.ToCanonical(ctx, text)
	if err != nil {
		return nil, err
	}

	reply := &Reply{Query: query, Language: lang}
	if err := a.answer(ctx, reply); err != nil {
		return nil, err
	}
	if reply.Refused {
		return reply, nil
	}

	reply.Answer, err = a.normalizer.FromCanonical(ctx, reply.Answer, lang)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// answer gates reply.Query and fills in either the refusal or the answer.
func (a *Assistant) answer(ctx context.Context, reply *Reply) error {
	ok, err := a.gate.IsMedical(ctx, reply.Query)
	if err != nil {
		return err
	}
	if !ok {
		log.Info().Str("query", reply.Query).Msg("non-medical input refused")
		reply.Refused = true
		reply.Answer = RefusalMessage
		return nil
	}

	out, err := a.answerer.AnswerQuery(ctx, reply.Query)
	if err != nil {
		return err
	}
	reply.Answer = out
	return nil
}
