package util

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns a 16 character lowercase id with the given prefix,
// e.g. "exp_4k1z0c9q2m7d8a1b".
func NewID(prefix string) (string, error) {
	id, err := gonanoid.Generate(idAlphabet, 16)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	if prefix == "" {
		return id, nil
	}
	return prefix + "_" + id, nil
}
