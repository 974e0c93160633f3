package service

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// CodeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
	CodeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength      = 6
	MaxCodeAttempts = 100
)

// CodeReserver atomically claims a code. Reserve returns false if the code is
// already held by another session.
type CodeReserver interface {
	ReserveCode(code string) bool
}

// CodeAllocator draws short join codes from a crypto-strength source
type CodeAllocator struct {
	reserver    CodeReserver
	random      io.Reader
	maxAttempts int
}

// NewCodeAllocator creates a code allocator backed by crypto/rand
func NewCodeAllocator(reserver CodeReserver) *CodeAllocator {
	return &CodeAllocator{
		reserver:    reserver,
		random:      rand.Reader,
		maxAttempts: MaxCodeAttempts,
	}
}

// Allocate returns a freshly reserved code. The caller owns the reservation
// and must release it if the session is never stored.
func (a *CodeAllocator) Allocate() (string, error) {
	for attempts := 0; attempts < a.maxAttempts; attempts++ {
		code, err := a.draw()
		if err != nil {
			return "", err
		}
		if a.reserver.ReserveCode(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodeExhausted, a.maxAttempts)
}

func (a *CodeAllocator) draw() (string, error) {
	b := make([]byte, CodeLength)
	if _, err := io.ReadFull(a.random, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	// 256 is a multiple of len(CodeAlphabet), so the modulo is unbiased.
	code := make([]byte, CodeLength)
	for i := range code {
		code[i] = CodeAlphabet[int(b[i])%len(CodeAlphabet)]
	}
	return string(code), nil
}
