package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bengaliQuestion = "আমার মাথা ব্যথা করছে এবং গত দুই দিন ধরে জ্বর আছে, আমার কী করা উচিত?"

type fakeGate struct {
	medical bool
	err     error
	seen    []string
}

func (g *fakeGate) IsMedical(_ context.Context, text string) (bool, error) {
	g.seen = append(g.seen, text)
	return g.medical, g.err
}

type fakeAnswerer struct {
	answer string
	err    error
	seen   []string
}

func (f *fakeAnswerer) AnswerQuery(_ context.Context, q string) (string, error) {
	f.seen = append(f.seen, q)
	return f.answer, f.err
}

// tagTranslator marks translated text with its target language.
type tagTranslator struct {
	calls []string
}

func (t *tagTranslator) Translate(_ context.Context, text, from, to string) (string, error) {
	t.calls = append(t.calls, from+">"+to)
	return fmt.Sprintf("[%s] %s", to, text), nil
}

type fakeTranscriber struct {
	text string
	err  error
	mime string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, mimeType string) (string, error) {
	f.mime = mimeType
	return f.text, f.err
}

type fakeDescriber struct {
	description string
	question    string
}

func (f *fakeDescriber) DescribeImage(_ context.Context, _ []byte, _ string, question string) (string, error) {
	f.question = question
	return f.description, nil
}

func TestAskText_RefusalNeverReachesPipeline(t *testing.T) {
	gate := &fakeGate{medical: false}
	answerer := &fakeAnswerer{answer: "should not be used"}
	a := New(gate, answerer, nil)

	reply, err := a.AskText(context.Background(), "Who won the football world cup in 2018?")
	require.NoError(t, err)

	assert.True(t, reply.Refused)
	assert.Equal(t, RefusalMessage, reply.Answer)
	assert.Empty(t, answerer.seen)
	assert.Len(t, gate.seen, 1)
}

func TestAskText_MedicalQuestion(t *testing.T) {
	gate := &fakeGate{medical: true}
	answerer := &fakeAnswerer{answer: "Rest and drink fluids."}
	a := New(gate, answerer, NewNormalizer("en", &tagTranslator{}))

	reply, err := a.AskText(context.Background(), "  What should I do about a mild fever that started yesterday?  ")
	require.NoError(t, err)

	assert.False(t, reply.Refused)
	assert.Equal(t, "en", reply.Language)
	assert.Equal(t, "Rest and drink fluids.", reply.Answer)
	assert.Equal(t, []string{"What should I do about a mild fever that started yesterday?"}, answerer.seen)
}

func TestAskText_EnglishAnswerStaysEnglish(t *testing.T) {
	tr := &tagTranslator{}
	gate := &fakeGate{medical: true}
	answerer := &fakeAnswerer{answer: "Avoid combining them; alcohol adds strain on the liver."}
	a := New(gate, answerer, NewNormalizer("en", tr, "en", "bn"))

	reply, err := a.AskText(context.Background(), "Can I take paracetamol with alcohol?")
	require.NoError(t, err)

	assert.Equal(t, "en", reply.Language)
	assert.Equal(t, "Avoid combining them; alcohol adds strain on the liver.", reply.Answer)
	assert.Equal(t, []string{"Can I take paracetamol with alcohol?"}, answerer.seen)
	assert.Empty(t, tr.calls)
}

func TestAskText_TranslatesBothWays(t *testing.T) {
	tr := &tagTranslator{}
	gate := &fakeGate{medical: true}
	answerer := &fakeAnswerer{answer: "Take paracetamol and rest."}
	a := New(gate, answerer, NewNormalizer("en", tr))

	reply, err := a.AskText(context.Background(), bengaliQuestion)
	require.NoError(t, err)

	assert.Equal(t, "bn", reply.Language)
	assert.Equal(t, "[en] "+bengaliQuestion, reply.Query)
	assert.Equal(t, []string{"[en] " + bengaliQuestion}, gate.seen)
	assert.Equal(t, []string{"[en] " + bengaliQuestion}, answerer.seen)
	assert.Equal(t, "[bn] Take paracetamol and rest.", reply.Answer)
	assert.Equal(t, []string{"bn>en", "en>bn"}, tr.calls)
}

func TestAskText_RefusalIsNotTranslated(t *testing.T) {
	tr := &tagTranslator{}
	a := New(&fakeGate{medical: false}, &fakeAnswerer{}, NewNormalizer("en", tr))

	reply, err := a.AskText(context.Background(), bengaliQuestion)
	require.NoError(t, err)

	assert.Equal(t, RefusalMessage, reply.Answer)
	assert.Equal(t, []string{"bn>en"}, tr.calls)
}

func TestAskText_Errors(t *testing.T) {
	_, err := New(&fakeGate{}, &fakeAnswerer{}, nil).AskText(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)

	gateErr := errors.New("classifier down")
	_, err = New(&fakeGate{err: gateErr}, &fakeAnswerer{}, nil).AskText(context.Background(), "fever")
	assert.ErrorIs(t, err, gateErr)

	pipeErr := errors.New("llm down")
	_, err = New(&fakeGate{medical: true}, &fakeAnswerer{err: pipeErr}, nil).AskText(context.Background(), "fever")
	assert.ErrorIs(t, err, pipeErr)
}

func TestAskVoice(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		a := New(&fakeGate{medical: true}, &fakeAnswerer{}, nil)
		assert.False(t, a.HasVoice())
		_, err := a.AskVoice(context.Background(), []byte("RIFF"), "audio/wav")
		assert.ErrorIs(t, err, ErrVoiceUnavailable)
	})

	t.Run("transcript is answered", func(t *testing.T) {
		tr := &fakeTranscriber{text: " I have a sore throat and a cough. "}
		answerer := &fakeAnswerer{answer: "Gargle with warm salt water."}
		a := New(&fakeGate{medical: true}, answerer, nil, WithTranscriber(tr))

		reply, err := a.AskVoice(context.Background(), []byte("RIFF"), "audio/wav")
		require.NoError(t, err)
		assert.Equal(t, "audio/wav", tr.mime)
		assert.Equal(t, "I have a sore throat and a cough.", reply.Transcript)
		assert.Equal(t, "Gargle with warm salt water.", reply.Answer)
	})

	t.Run("empty transcript", func(t *testing.T) {
		a := New(&fakeGate{medical: true}, &fakeAnswerer{}, nil, WithTranscriber(&fakeTranscriber{text: "  "}))
		_, err := a.AskVoice(context.Background(), []byte("RIFF"), "audio/wav")
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("transcription failure", func(t *testing.T) {
		boom := errors.New("boom")
		a := New(&fakeGate{medical: true}, &fakeAnswerer{}, nil, WithTranscriber(&fakeTranscriber{err: boom}))
		_, err := a.AskVoice(context.Background(), []byte("RIFF"), "audio/wav")
		assert.ErrorIs(t, err, boom)
	})
}

func TestAskImage(t *testing.T) {
	t.Run("description is the query", func(t *testing.T) {
		d := &fakeDescriber{description: "A red circular rash with a pale centre on the forearm."}
		gate := &fakeGate{medical: true}
		answerer := &fakeAnswerer{answer: "This may be ringworm."}
		a := New(gate, answerer, nil, WithDescriber(d))

		reply, err := a.AskImage(context.Background(), []byte{0xff, 0xd8}, "image/jpeg", " is this serious? ")
		require.NoError(t, err)

		assert.Equal(t, "is this serious?", d.question)
		assert.Equal(t, d.description, reply.Description)
		assert.Equal(t, []string{d.description}, gate.seen)
		assert.Equal(t, []string{d.description}, answerer.seen)
		assert.Equal(t, "This may be ringworm.", reply.Answer)
	})

	t.Run("non-medical image is refused", func(t *testing.T) {
		answerer := &fakeAnswerer{}
		a := New(&fakeGate{medical: false}, answerer, nil, WithDescriber(&fakeDescriber{description: "A sports car."}))

		reply, err := a.AskImage(context.Background(), []byte{1}, "image/png", "")
		require.NoError(t, err)
		assert.True(t, reply.Refused)
		assert.Equal(t, RefusalMessage, reply.Answer)
		assert.Empty(t, answerer.seen)
	})

	t.Run("no image", func(t *testing.T) {
		a := New(&fakeGate{}, &fakeAnswerer{}, nil, WithDescriber(&fakeDescriber{}))
		_, err := a.AskImage(context.Background(), nil, "image/png", "")
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}
