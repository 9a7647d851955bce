package protocol

import (
	"errors"
	"fmt"
)

// Error types for codec operations

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeTooManyMessages indicates a preset needs more than 16 message slots
	ErrTypeTooManyMessages ErrorType = iota
	// ErrTypeUnknownMessageType indicates a message type index outside the known table
	ErrTypeUnknownMessageType
	// ErrTypeUnknownEnumValue indicates an enum value (action, realtime, toggle) that is not recognized
	ErrTypeUnknownEnumValue
	// ErrTypeFrameFormat indicates a frame failed prefix, terminator, checksum or tag checks
	ErrTypeFrameFormat
	// ErrTypeInvalidChecksumInput indicates a value that does not fit in a byte
	ErrTypeInvalidChecksumInput
	// ErrTypeValidation indicates an invalid configuration value
	ErrTypeValidation
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTooManyMessages:
		return "Too Many Messages"
	case ErrTypeUnknownMessageType:
		return "Unknown Message Type"
	case ErrTypeUnknownEnumValue:
		return "Unknown Enum Value"
	case ErrTypeFrameFormat:
		return "Frame Format Error"
	case ErrTypeInvalidChecksumInput:
		return "Invalid Checksum Input"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// CodecError represents a structural error raised while encoding or decoding
type CodecError struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Context string    // Where it happened, e.g. "preset C" (optional)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *CodecError) Error() string {
	msg := e.Message
	if e.Context != "" {
		msg = e.Context + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *CodecError) Unwrap() error {
	return e.Err
}

// WithContext returns a copy of the error annotated with where it occurred.
// Existing context is kept as a suffix so the innermost location stays visible.
func (e *CodecError) WithContext(context string) *CodecError {
	c := *e
	if c.Context != "" {
		c.Context = context + ", " + c.Context
	} else {
		c.Context = context
	}
	return &c
}

// NewTooManyMessagesError reports a preset with more messages than slots
func NewTooManyMessagesError(count, limit int) *CodecError {
	return &CodecError{
		Type:    ErrTypeTooManyMessages,
		Message: fmt.Sprintf("%d messages specified, device supports %d", count, limit),
	}
}

// NewUnknownMessageTypeError reports a message type index or name outside the table
func NewUnknownMessageTypeError(message string) *CodecError {
	return &CodecError{
		Type:    ErrTypeUnknownMessageType,
		Message: message,
	}
}

// NewUnknownEnumValueError reports an unrecognized enum value
func NewUnknownEnumValueError(message string) *CodecError {
	return &CodecError{
		Type:    ErrTypeUnknownEnumValue,
		Message: message,
	}
}

// NewFrameFormatError reports a malformed frame
func NewFrameFormatError(message string) *CodecError {
	return &CodecError{
		Type:    ErrTypeFrameFormat,
		Message: message,
	}
}

// NewInvalidChecksumInputError reports a value that cannot be placed in a frame
func NewInvalidChecksumInputError(value int) *CodecError {
	return &CodecError{
		Type:    ErrTypeInvalidChecksumInput,
		Message: fmt.Sprintf("value %d does not fit in a byte", value),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *CodecError {
	return &CodecError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

// ErrorTypeOf returns the ErrorType of the first CodecError in err's chain.
func ErrorTypeOf(err error) (ErrorType, bool) {
	var codecErr *CodecError
	if errors.As(err, &codecErr) {
		return codecErr.Type, true
	}
	return 0, false
}

func isType(err error, et ErrorType) bool {
	t, ok := ErrorTypeOf(err)
	return ok && t == et
}

// IsTooManyMessages checks if an error is a too-many-messages error
func IsTooManyMessages(err error) bool {
	return isType(err, ErrTypeTooManyMessages)
}

// IsUnknownMessageType checks if an error is an unknown message type error
func IsUnknownMessageType(err error) bool {
	return isType(err, ErrTypeUnknownMessageType)
}

// IsUnknownEnumValue checks if an error is an unknown enum value error
func IsUnknownEnumValue(err error) bool {
	return isType(err, ErrTypeUnknownEnumValue)
}

// IsFrameFormatError checks if an error is a frame format error
func IsFrameFormatError(err error) bool {
	return isType(err, ErrTypeFrameFormat)
}

// IsInvalidChecksumInput checks if an error is an invalid checksum input error
func IsInvalidChecksumInput(err error) bool {
	return isType(err, ErrTypeInvalidChecksumInput)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrTypeValidation)
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		return err.Error()
	}

	prefix := ""
	if codecErr.Context != "" {
		prefix = codecErr.Context + ": "
	}

	switch codecErr.Type {
	case ErrTypeTooManyMessages:
		return prefix + "too many messages (the device has 16 slots per preset)"
	case ErrTypeUnknownMessageType:
		return prefix + "unknown message type - " + codecErr.Message
	case ErrTypeUnknownEnumValue:
		return prefix + "unknown value - " + codecErr.Message
	case ErrTypeFrameFormat:
		return prefix + "malformed sysex frame - " + codecErr.Message
	case ErrTypeInvalidChecksumInput:
		return prefix + codecErr.Message
	default:
		return prefix + codecErr.Message
	}
}
