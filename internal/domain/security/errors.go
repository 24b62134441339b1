package security

import "errors"

var (
	// ErrSensorNotFound is returned when a sensor handle or reference is unknown.
	ErrSensorNotFound = errors.New("sensor not found")
	// ErrSensorAlreadyExists is returned when a sensor is registered twice.
	ErrSensorAlreadyExists = errors.New("sensor already exists")
	// ErrSecurityZoneNotFound is returned when a zone id is unknown.
	ErrSecurityZoneNotFound = errors.New("security zone not found")
	// ErrSecurityModeNotFound is returned when a mode name or index is unknown.
	ErrSecurityModeNotFound = errors.New("security mode not found")
	// ErrSecurityModeAlreadyExists is returned when a mode name is taken.
	ErrSecurityModeAlreadyExists = errors.New("security mode already exists")
)

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSensorNotFound) ||
		errors.Is(err, ErrSecurityZoneNotFound) ||
		errors.Is(err, ErrSecurityModeNotFound)
}

// IsAlreadyExists reports whether err is one of the already-exists sentinels.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrSensorAlreadyExists) || errors.Is(err, ErrSecurityModeAlreadyExists)
}
