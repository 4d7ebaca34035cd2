package qlearning

import "errors"

// Sentinel errors for the qlearning package.
// Use errors.Is to check: errors.Is(err, qlearning.ErrTableNotFound)
var (
	ErrTableNotFound   = errors.New("qlearning: table file not found")
	ErrShapeMismatch   = errors.New("qlearning: table shape mismatch")
	ErrInvalidShape    = errors.New("qlearning: invalid table shape")
	ErrInvalidSettings = errors.New("qlearning: hyperparameters out of range")
)
