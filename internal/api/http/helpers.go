package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"fuel-dashboard/internal/auth"
	fuel "fuel-dashboard/internal/fuel/domain"
	masterdata "fuel-dashboard/internal/masterdata/domain"
	reportapp "fuel-dashboard/internal/reporting/application"
	reporting "fuel-dashboard/internal/reporting/domain"
	"fuel-dashboard/internal/reporting/export"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, reporting.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, reportapp.ErrForbidden), errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, reportapp.ErrUserNotFound),
		errors.Is(err, masterdata.ErrPlazaNotFound),
		errors.Is(err, masterdata.ErrGeneratorNotFound),
		errors.Is(err, masterdata.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, fuel.ErrInsufficientBalance),
		errors.Is(err, masterdata.ErrEmailInUse),
		errors.Is(err, masterdata.ErrGeneratorInUse):
		return http.StatusConflict
	case errors.Is(err, fuel.ErrInvalidAmount),
		errors.Is(err, fuel.ErrZeroAmount),
		errors.Is(err, fuel.ErrInvalidOdometer),
		errors.Is(err, fuel.ErrNegativeOdometer),
		errors.Is(err, fuel.ErrGeneratorRequired),
		errors.Is(err, fuel.ErrGeneratorNotInPlaza),
		errors.Is(err, fuel.ErrNoPlazaAssigned),
		errors.Is(err, masterdata.ErrEmptyName),
		errors.Is(err, masterdata.ErrEmptyPlazaID),
		errors.Is(err, masterdata.ErrInvalidRole),
		errors.Is(err, masterdata.ErrEmailRequired),
		errors.Is(err, masterdata.ErrPasswordRequired),
		errors.Is(err, reportapp.ErrNoUsersSelected),
		errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageFor hides internal error details behind a generic message.
func messageFor(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusServiceUnavailable:
		return "data unavailable, try again later"
	default:
		return err.Error()
	}
}
