package common

// AuthorizationHeaderName is the HTTP header that carries the session token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the authentication scheme expected in AuthorizationHeaderName.
const BearerScheme = "Bearer"
