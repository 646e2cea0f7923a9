package fuel

import "errors"

var (
	// ErrEmptyPlazaID is returned when a transaction has no plaza.
	ErrEmptyPlazaID = errors.New("fuel: empty plaza id")
	// ErrEmptyUserID is returned when a transaction has no user.
	ErrEmptyUserID = errors.New("fuel: empty user id")
	// ErrZeroAmount is returned for a zero fuel amount.
	ErrZeroAmount = errors.New("fuel: zero amount")
	// ErrInvalidAmount is returned when a requested amount is not positive.
	ErrInvalidAmount = errors.New("fuel: amount must be positive")
	// ErrNegativeOdometer is returned for a negative odometer reading.
	ErrNegativeOdometer = errors.New("fuel: negative odometer")
	// ErrInvalidOdometer is returned when a withdrawal lacks a positive odometer reading.
	ErrInvalidOdometer = errors.New("fuel: odometer hours must be positive")
	// ErrGeneratorRequired is returned when a withdrawal has no generator.
	ErrGeneratorRequired = errors.New("fuel: generator required")
	// ErrGeneratorNotInPlaza is returned when the generator belongs to another plaza.
	ErrGeneratorNotInPlaza = errors.New("fuel: generator not in plaza")
	// ErrNoPlazaAssigned is returned when the recording user has no plaza.
	ErrNoPlazaAssigned = errors.New("fuel: user has no plaza")
	// ErrInsufficientBalance is returned when a withdrawal exceeds the tank balance.
	ErrInsufficientBalance = errors.New("fuel: insufficient tank balance")
	// ErrTankNotFound is returned when a plaza has no tank row.
	ErrTankNotFound = errors.New("fuel: tank not found")
)
