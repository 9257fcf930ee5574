package service

import (
	"context"
)

const greetingPrefix = "Hello "

// Service defines the greeting use cases.
type Service interface {
	Greet(ctx context.Context, name string) (string, error)
}

type service struct{}

// New constructs the greeting service.
func New() Service {
	return &service{}
}

// Greet echoes name after the greeting prefix. The name is used verbatim, empty included.
func (s *service) Greet(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return greetingPrefix + name, nil
}
