package service

import "errors"

// ErrVerificationFailed is returned when a payment assertion does not
// match the stored order or its signature.  The booking is left pending
// so the client can retry within the hold TTL.
var ErrVerificationFailed = errors.New("payment verification failed")

// ErrTurfUnavailable is returned when reserving at a turf that is not
// approved.
var ErrTurfUnavailable = errors.New("turf is not accepting bookings")
