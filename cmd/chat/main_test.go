package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_AnswersUntilQuit(t *testing.T) {
	var asked []string
	ask := func(_ context.Context, q string) (string, error) {
		asked = append(asked, q)
		return "answer to " + q, nil
	}

	in := strings.NewReader("What causes migraines?\n\n  QUIT  \nnever asked\n")
	var out bytes.Buffer
	run(context.Background(), in, &out, ask)

	assert.Equal(t, []string{"What causes migraines?"}, asked)
	assert.Contains(t, out.String(), "answer to What causes migraines?")
}

func TestRun_ErrorsDoNotStopTheLoop(t *testing.T) {
	calls := 0
	ask := func(_ context.Context, q string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("model timeout")
		}
		return "ok", nil
	}

	var out bytes.Buffer
	run(context.Background(), strings.NewReader("first\nsecond\nexit\n"), &out, ask)

	assert.Equal(t, 2, calls)
	assert.Contains(t, out.String(), "Error: model timeout")
	assert.Contains(t, out.String(), "Answer:\nok")
}

func TestRun_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	run(context.Background(), strings.NewReader("fever?"), &out, func(context.Context, string) (string, error) {
		return "rest", nil
	})
	assert.Contains(t, out.String(), "rest")
}
