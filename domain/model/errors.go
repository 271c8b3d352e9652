package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedVersion      = errors.New("unsupported kubernetes version")
	ErrUnknownKind             = errors.New("unknown kind")
	ErrUnknownProfile          = errors.New("unknown compliance profile")
	ErrUnknownProvider         = errors.New("unknown pricing provider")
	ErrInvalidResourceQuantity = errors.New("invalid resource quantity")
	ErrInvalidResource         = errors.New("invalid resource document")
	ErrUnknownPolicySet        = errors.New("unknown policy set")
)

// UnsupportedVersionError reports a Kubernetes version outside the supported set.
type UnsupportedVersionError struct {
	Version   string
	Supported []string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s %q (supported: %s)", ErrUnsupportedVersion, e.Version, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedVersion }

// UnknownKindError reports a kind with no schema mapping for a version.
type UnknownKindError struct {
	Kind    Kind
	Version string
}

func (e *UnknownKindError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("%s %q", ErrUnknownKind, e.Kind)
	}
	return fmt.Sprintf("%s %q for kubernetes %s", ErrUnknownKind, e.Kind, e.Version)
}

func (e *UnknownKindError) Unwrap() error { return ErrUnknownKind }

// UnknownProfileError reports an environment name missing from the profile table.
type UnknownProfileError struct {
	Name string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownProfile, e.Name)
}

func (e *UnknownProfileError) Unwrap() error { return ErrUnknownProfile }

// UnknownProviderError reports a provider missing from the pricing table.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownProvider, e.Provider)
}

func (e *UnknownProviderError) Unwrap() error { return ErrUnknownProvider }

// InvalidResourceQuantityError reports a malformed CPU or memory quantity.
type InvalidResourceQuantityError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidResourceQuantityError) Error() string {
	msg := fmt.Sprintf("%s for %s: %q", ErrInvalidResourceQuantity, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidResourceQuantityError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidResourceQuantity}
	}
	return []error{ErrInvalidResourceQuantity, e.Err}
}
