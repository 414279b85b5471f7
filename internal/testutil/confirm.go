package testutil

import (
	"context"

	"cfgbk-go/internal/bk"
)

// ScriptedConfirmer answers every prompt with Answer, or fails with Err.
type ScriptedConfirmer struct {
	Answer  bool
	Err     error
	Prompts []string
}

func (c *ScriptedConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.Prompts = append(c.Prompts, prompt)
	if c.Err != nil {
		return false, c.Err
	}
	return c.Answer, nil
}

var _ bk.Confirmer = (*ScriptedConfirmer)(nil)
