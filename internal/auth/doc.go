// Package auth verifies bearer tokens on the admin API.
//
// Token issuance and authorization policy live outside this service; the
// middleware only checks the HS256 signature and standard claims.
package auth
