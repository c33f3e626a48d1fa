package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates run identifiers used to correlate a cycle's logs and events.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

// Static always returns the same id; useful for deterministic tests.
type Static string

func (s Static) NewID() (string, error) {
	return string(s), nil
}
