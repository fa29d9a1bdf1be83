package capture

import (
	"errors"
	"fmt"
)

// ErrorKind classifies camera failures.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindPermissionDenied
	KindNoDevice
)

func (k ErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission-denied"
	case KindNoDevice:
		return "no-device"
	default:
		return "other"
	}
}

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNoDevice         = errors.New("no camera found")
)

// DeviceError is a classified camera failure. None of them are fatal: the
// file path stays available.
type DeviceError struct {
	Kind ErrorKind
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("camera %s: %v", e.Kind, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Is matches the Kind sentinels so callers can use errors.Is.
func (e *DeviceError) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrNoDevice:
		return e.Kind == KindNoDevice
	}
	return false
}

// UserMessage is the notice shown for the failure.
func (e *DeviceError) UserMessage() string {
	switch e.Kind {
	case KindPermissionDenied:
		return "Отказан достъп до камерата. Моля, разреши достъпа или използвай бутона за качване."
	case KindNoDevice:
		return "Не е намерена камера. Моля, използвай галерията."
	default:
		return "Грешка при достъп до камерата. Провери настройките или качи файл."
	}
}

// AsDeviceError wraps err as a DeviceError of kind other unless it already is one.
func AsDeviceError(err error) *DeviceError {
	var de *DeviceError
	if errors.As(err, &de) {
		return de
	}
	return &DeviceError{Kind: KindOther, Err: err}
}
