// Package auth authenticates the head unit's operator.
//
// There is one account, configured under security.operator with an
// Argon2id password hash (see HashPassword). A successful login yields a
// short-lived HS256 JWT that the HTTP API checks on every protected
// route.
package auth
