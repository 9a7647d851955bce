package protocol

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCodecError_Error(t *testing.T) {
	err := NewTooManyMessagesError(17, 16).WithContext("preset C")

	msg := err.Error()
	if !strings.Contains(msg, "Too Many Messages") {
		t.Errorf("Error() = %q, should contain type name", msg)
	}
	if !strings.Contains(msg, "preset C") {
		t.Errorf("Error() = %q, should contain context", msg)
	}
	if !strings.Contains(msg, "17") {
		t.Errorf("Error() = %q, should contain message count", msg)
	}
}

func TestCodecError_WithContextNests(t *testing.T) {
	err := NewUnknownEnumValueError("action index 12").WithContext("slot 3").WithContext("preset A")
	if err.Context != "preset A, slot 3" {
		t.Errorf("Context = %q, want %q", err.Context, "preset A, slot 3")
	}
}

func TestCodecError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &CodecError{Type: ErrTypeValidation, Message: "bad", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find wrapped error")
	}
	if !strings.Contains(err.Error(), "caused by: boom") {
		t.Errorf("Error() = %q, should mention cause", err.Error())
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"too many messages", NewTooManyMessagesError(17, 16), IsTooManyMessages},
		{"unknown message type", NewUnknownMessageTypeError("index 40"), IsUnknownMessageType},
		{"unknown enum", NewUnknownEnumValueError("realtime \"pause\""), IsUnknownEnumValue},
		{"frame format", NewFrameFormatError("bad end"), IsFrameFormatError},
		{"invalid checksum input", NewInvalidChecksumInputError(300), IsInvalidChecksumInput},
		{"validation", NewValidationError("channel 17"), IsValidationError},
		{"wrapped", fmt.Errorf("encode bank: %w", NewTooManyMessagesError(20, 16)), IsTooManyMessages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate returned false for %v", tt.err)
			}
		})
	}

	if IsFrameFormatError(errors.New("plain")) {
		t.Error("plain errors should not match codec predicates")
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	err := NewTooManyMessagesError(17, 16).WithContext("preset B")
	got := GetShortErrorMessage(err)
	if !strings.HasPrefix(got, "preset B: ") {
		t.Errorf("GetShortErrorMessage() = %q, should start with context", got)
	}

	plain := errors.New("file not found")
	if got := GetShortErrorMessage(plain); got != "file not found" {
		t.Errorf("GetShortErrorMessage(plain) = %q, want %q", got, "file not found")
	}
}

func TestErrorType_String(t *testing.T) {
	if got := ErrTypeFrameFormat.String(); got != "Frame Format Error" {
		t.Errorf("String() = %q, want %q", got, "Frame Format Error")
	}
	if got := ErrorType(99).String(); got != "ErrorType(99)" {
		t.Errorf("String() = %q, want %q", got, "ErrorType(99)")
	}
}
