package masterdata

import "errors"

var (
	// ErrEmptyName is returned when a plaza or generator has no name.
	ErrEmptyName = errors.New("masterdata: empty name")
	// ErrEmptyPlazaID is returned when a generator has no plaza.
	ErrEmptyPlazaID = errors.New("masterdata: empty plaza id")
	// ErrPlazaNotFound is returned when a referenced plaza does not exist.
	ErrPlazaNotFound = errors.New("masterdata: plaza not found")
	// ErrGeneratorNotFound is returned when a referenced generator does not exist.
	ErrGeneratorNotFound = errors.New("masterdata: generator not found")
	// ErrGeneratorInUse is returned when deleting a generator that has
	// recorded withdrawals.
	ErrGeneratorInUse = errors.New("masterdata: generator has recorded transactions")
	// ErrProfileNotFound is returned when a profile does not exist.
	ErrProfileNotFound = errors.New("masterdata: profile not found")
	// ErrEmailInUse is returned when creating a profile with a taken email.
	ErrEmailInUse = errors.New("masterdata: email already registered")
	// ErrInvalidRole is returned for roles other than user, manager and admin.
	ErrInvalidRole = errors.New("masterdata: invalid role")
	// ErrEmailRequired is returned when creating a profile without email.
	ErrEmailRequired = errors.New("masterdata: email required")
	// ErrPasswordRequired is returned when creating a profile without password.
	ErrPasswordRequired = errors.New("masterdata: password required")
)
