package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "job not found"},
			want: "job not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeTransport,
				Message: "backend request failed",
				Cause:   errors.New("connection refused"),
			},
			want: "backend request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeInternal, "wrapped error")

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestTransport(t *testing.T) {
	err := Transport(http.StatusServiceUnavailable)
	if err.Code != ErrCodeTransport {
		t.Errorf("Transport().Code = %v, want %v", err.Code, ErrCodeTransport)
	}
	if err.Status != http.StatusServiceUnavailable {
		t.Errorf("Transport().Status = %d, want 503", err.Status)
	}
	if got := GetStatus(fmt.Errorf("list jobs: %w", err)); got != http.StatusServiceUnavailable {
		t.Errorf("GetStatus(wrapped) = %d, want 503", got)
	}
}

func TestTransportCause(t *testing.T) {
	if TransportCause(nil) != nil {
		t.Error("TransportCause(nil) should be nil")
	}
	cause := errors.New("dial tcp: no route to host")
	err := TransportCause(cause)
	if !IsTransport(err) || err.Status != 0 {
		t.Errorf("TransportCause() = %+v, want transport with status 0", err)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be preserved")
	}
}

func TestEnvelope(t *testing.T) {
	if got := Envelope("quota exceeded").Message; got != "quota exceeded" {
		t.Errorf("Envelope().Message = %q", got)
	}
	if got := Envelope("").Message; got == "" {
		t.Error("Envelope(\"\") should fall back to a default message")
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("nickname", "nickname is required")
	if err.Code != ErrCodeValidation {
		t.Errorf("ValidationField().Code = %v, want %v", err.Code, ErrCodeValidation)
	}
	if err.Field != "nickname" {
		t.Errorf("ValidationField().Field = %v, want nickname", err.Field)
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "wrapped error"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := Storage(nil, "x"); err != nil {
		t.Errorf("Storage(nil) = %v, want nil", err)
	}
	if err := Provider(nil, "x"); err != nil {
		t.Errorf("Provider(nil) = %v, want nil", err)
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(errors.New("boom"), ErrCodeStorage, "write %s", "cache_job_1")
	if err.Message != "write cache_job_1" {
		t.Errorf("Wrapf().Message = %q", err.Message)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
		want bool
	}{
		{name: "transport", err: Transport(500), is: IsTransport, want: true},
		{name: "transport wrapped", err: fmt.Errorf("x: %w", Transport(404)), is: IsTransport, want: true},
		{name: "envelope", err: Envelope("no"), is: IsEnvelope, want: true},
		{name: "envelope is backend", err: Envelope("no"), is: IsBackend, want: true},
		{name: "transport is backend", err: Transport(502), is: IsBackend, want: true},
		{name: "provider not backend", err: Provider(errors.New("x"), "p"), is: IsBackend, want: false},
		{name: "storage", err: Storage(errors.New("x"), "s"), is: IsStorage, want: true},
		{name: "provider", err: Provider(errors.New("x"), "p"), is: IsProvider, want: true},
		{name: "not found", err: NotFoundf("job %s", "1"), is: IsNotFound, want: true},
		{name: "unauthenticated", err: Unauthenticated("sign in"), is: IsUnauthenticated, want: true},
		{name: "internal", err: Internal("x"), is: IsInternal, want: true},
		{name: "timeout", err: &AppError{Code: ErrCodeTimeout}, is: IsTimeout, want: true},
		{name: "canceled", err: &AppError{Code: ErrCodeCanceled}, is: IsCanceled, want: true},
		{name: "validation mismatch", err: NotFound("x"), is: IsValidation, want: false},
		{name: "standard error", err: errors.New("plain"), is: IsTransport, want: false},
		{name: "nil error", err: nil, is: IsEnvelope, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.is(tt.err); got != tt.want {
				t.Errorf("predicate(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "app error", err: NotFound("not found"), want: ErrCodeNotFound},
		{name: "standard error", err: errors.New("standard error"), want: ""},
		{name: "nil error", err: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}
