package common

// Cookie names used to carry the token pair between the HTTP API and
// browser clients.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)

// DefaultRole is assigned to accounts created through self-registration.
const DefaultRole = "user"
