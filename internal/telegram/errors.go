package telegram

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Gateway error descriptions follow the MTProto RPC error naming scheme.
const (
	errFloodWaitPrefix     = "FLOOD_WAIT_"
	errAlreadyParticipant  = "USER_ALREADY_PARTICIPANT"
	errInviteHashExpired   = "INVITE_HASH_EXPIRED"
	errInviteHashInvalid   = "INVITE_HASH_INVALID"
	errChannelPrivate      = "CHANNEL_PRIVATE"
	errUserBanned          = "USER_BANNED_IN_CHANNEL"
	errPasswordNeeded      = "SESSION_PASSWORD_NEEDED"
	errAuthKeyUnregistered = "AUTH_KEY_UNREGISTERED"
)

// asAPIError extracts an *APIError from err, or returns nil.
func asAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// FloodWait reports whether err is a flood-wait error and, if so, how long
// the server demands to wait before the next request. The duration comes
// from parameters.retry_after when present, otherwise from the trailing
// seconds in the FLOOD_WAIT_%d description.
func FloodWait(err error) (time.Duration, bool) {
	apiErr := asAPIError(err)
	if apiErr == nil || !strings.HasPrefix(apiErr.Description, errFloodWaitPrefix) {
		return 0, false
	}
	if apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second, true
	}
	secs, convErr := strconv.Atoi(strings.TrimPrefix(apiErr.Description, errFloodWaitPrefix))
	if convErr != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// IsAlreadyParticipant reports whether err means the account is already a
// member of the target chat.
func IsAlreadyParticipant(err error) bool {
	apiErr := asAPIError(err)
	return apiErr != nil && apiErr.Description == errAlreadyParticipant
}

// IsPermanent reports whether err is a permanent join failure: an invalid
// or expired invite, a private channel, or a ban.
func IsPermanent(err error) bool {
	apiErr := asAPIError(err)
	if apiErr == nil {
		return false
	}
	switch apiErr.Description {
	case errInviteHashExpired, errInviteHashInvalid, errChannelPrivate, errUserBanned:
		return true
	}
	return false
}

// IsPasswordNeeded reports whether err means the account has two-step
// verification enabled and a password must be supplied.
func IsPasswordNeeded(err error) bool {
	apiErr := asAPIError(err)
	return apiErr != nil && apiErr.Description == errPasswordNeeded
}

// IsUnauthorized reports whether err means the session is not (or no
// longer) authorized and a fresh login is required.
func IsUnauthorized(err error) bool {
	apiErr := asAPIError(err)
	if apiErr == nil {
		return false
	}
	return apiErr.Code == 401 || apiErr.Description == errAuthKeyUnregistered
}
