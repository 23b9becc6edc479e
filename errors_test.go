package xdcopy

import (
	"errors"
	"testing"
)

func TestEnsureOKDoesNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("ensure(true, ...) should not panic, got %v", r)
		}
	}()
	ensure(true, "TestOp", "should never fire")
}

func TestEnsureFailurePanicsWithContractError(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected ensure(false, ...) to panic")
		}
		e, ok := r.(*Error)
		if !ok || e.Type != ErrContract {
			t.Fatalf("expected a *Error with Type ErrContract, got %v", r)
		}
	}()
	ensure(false, "TestOp", "value was %d, expected %d", 1, 2)
}

func TestRecoverContractErrorConvertsPanicToError(t *testing.T) {
	fn := func() (err error) {
		defer recoverContractError(&err)
		ensure(false, "TestOp", "boom")
		return nil
	}
	err := fn()
	if err == nil {
		t.Fatal("expected an error to be returned")
	}
	if !IsContractError(err) {
		t.Errorf("expected a contract error, got %v", err)
	}
}

func TestRecoverContractErrorRepanicsOnOtherPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a non-contract panic to propagate")
		}
	}()
	fn := func() (err error) {
		defer recoverContractError(&err)
		panic("unrelated failure")
	}
	_ = fn()
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("backend exploded")
	err := NewBackendError("Execute", cause)
	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find wrapped cause")
	}
}

func TestNewCapabilityErrorType(t *testing.T) {
	err := NewCapabilityError("CanExecute", "backend lacks 2d copy for %v", Device(0))
	if !IsCapabilityError(err) {
		t.Errorf("expected a capability error, got %v", err)
	}
	if IsContractError(err) {
		t.Error("capability error should not also be a contract error")
	}
}

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrContract, "Contract"},
		{ErrCapability, "Capability"},
		{ErrBackend, "Backend"},
		{ErrorType(999), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.errType.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}
