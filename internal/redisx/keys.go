package redisx

import "time"

const (
	// Revoked session: auth:revoked:{jti} -> user id, expires with the token.
	KeyRevokedToken = "auth:revoked:%s"
)

var (
	// TTLRevokedMin keeps a revocation briefly even for tokens that are
	// about to expire, to cover clock skew.
	TTLRevokedMin = time.Minute
)
