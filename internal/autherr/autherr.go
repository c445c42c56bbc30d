// Package autherr defines the typed failure outcomes of the authentication
// core. Every auth failure carries exactly one Kind; callers match with
// errors.Is against the sentinels below and map kinds to transport status
// codes with HTTPStatus.
package autherr

import (
	"errors"
	"net/http"
)

// Kind classifies an authentication failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidCredentials
	KindAccountInactive
	KindTokenExpired
	KindTokenInvalid
	KindWrongTokenType
	KindUserNotFound
	KindDuplicateUsername
	KindDuplicateEmail
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindInvalidCredentials: "invalid_credentials",
	KindAccountInactive:    "account_inactive",
	KindTokenExpired:       "token_expired",
	KindTokenInvalid:       "token_invalid",
	KindWrongTokenType:     "wrong_token_type",
	KindUserNotFound:       "user_not_found",
	KindDuplicateUsername:  "duplicate_username",
	KindDuplicateEmail:     "duplicate_email",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is an authentication failure of a given Kind. Err optionally holds
// the underlying cause; it is never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "incorrect username or password"}
	ErrAccountInactive    = &Error{Kind: KindAccountInactive, Message: "account is inactive"}
	ErrTokenExpired       = &Error{Kind: KindTokenExpired, Message: "token expired"}
	ErrTokenInvalid       = &Error{Kind: KindTokenInvalid, Message: "invalid token"}
	ErrWrongTokenType     = &Error{Kind: KindWrongTokenType, Message: "invalid token type"}
	ErrUserNotFound       = &Error{Kind: KindUserNotFound, Message: "user not found"}
	ErrDuplicateUsername  = &Error{Kind: KindDuplicateUsername, Message: "username already registered"}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail, Message: "email already registered"}
)

// Wrap attaches cause to a copy of the sentinel so the kind survives while the
// cause stays available for logging.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the client-safe message for err, without the wrapped cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return http.StatusText(http.StatusInternalServerError)
}

// HTTPStatus maps a Kind to the status the routing layer responds with.
func HTTPStatus(k Kind) int {
	switch k {
	case KindInvalidCredentials, KindTokenExpired, KindTokenInvalid, KindWrongTokenType:
		return http.StatusUnauthorized
	case KindAccountInactive:
		return http.StatusForbidden
	case KindUserNotFound:
		return http.StatusNotFound
	case KindDuplicateUsername, KindDuplicateEmail:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
