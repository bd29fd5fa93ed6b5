// Package auth provides bearer token authentication for the genia HTTP API.
//
// Tokens are HS256 JWTs whose "sub" claim names the owner id the task list
// belongs to. The development server wraps its handlers in
// HTTPAuthMiddleware when a jwt_secret is configured; handlers read the
// subject back with OwnerFromContext.
//
// Issue a token for a client:
//
//	v, err := auth.NewJWTVerifier(secret)
//	token, err := v.Generate("1", 30*24*time.Hour)
package auth
