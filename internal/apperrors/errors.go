package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrAccountInactive indicates an operation against a deactivated account.
var ErrAccountInactive = errors.New("account is inactive")

// ErrInsufficientFunds indicates a debit that would take a balance below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")
