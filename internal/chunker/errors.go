package chunker

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBudget matches every *ConfigError.
	ErrInvalidBudget = errors.New("invalid token budget")
	// ErrTokenization matches every *TokenizationError.
	ErrTokenization = errors.New("tokenization failed")
)

// ConfigError reports a budget that violates min < target < max, or a
// chunker built without a tokenizer.
type ConfigError struct {
	Budget Budget
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid token budget (target=%d min=%d max=%d): %s",
		e.Budget.Target, e.Budget.Min, e.Budget.Max, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidBudget }

// TokenizationError wraps a failure of the tokenizer to measure some text.
type TokenizationError struct {
	Tokenizer string
	Err       error
}

func (e *TokenizationError) Error() string {
	return fmt.Sprintf("tokenize (%s): %v", e.Tokenizer, e.Err)
}

func (e *TokenizationError) Unwrap() error { return e.Err }

func (e *TokenizationError) Is(target error) bool { return target == ErrTokenization }
