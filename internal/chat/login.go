package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudzz-dev/batepapo/internal/client/api"
)

type Registrar interface {
	Register(ctx context.Context, name string) error
}

// Login registers name and returns the session for it. Blank names are
// rejected without contacting the backend.
func Login(ctx context.Context, r Registrar, name string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if err := r.Register(ctx, name); err != nil {
		if errors.Is(err, api.ErrNameTaken) {
			return nil, fmt.Errorf("%w: %q", ErrNameTaken, name)
		}
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	return NewSession(name), nil
}
