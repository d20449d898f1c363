package status

import "errors"

var (
	// ErrNotAvailable is returned when a ticket is already reserved or sold.
	ErrNotAvailable = errors.New("ticket: not available")

	// ErrUnknownSession is returned when no order matches a checkout session id.
	ErrUnknownSession = errors.New("payment: unknown session")

	// ErrGateway is returned when the payment provider is unreachable or
	// replies with something we cannot use.
	ErrGateway = errors.New("payment: gateway error")

	// ErrInvalidSignature is returned when webhook signature verification fails.
	ErrInvalidSignature = errors.New("webhook: invalid signature")

	ErrNotAuthenticated = errors.New("auth: not authenticated")
	ErrNotAuthorized    = errors.New("auth: not authorized")

	ErrSessionNotFound = errors.New("session: not found")
)
