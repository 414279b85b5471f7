package bk

import "context"

// Confirmer asks the operator a yes/no question before restore mutates anything.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}
