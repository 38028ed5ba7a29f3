// Package auth implements the shared-secret bearer token check that guards
// mutating endpoints.
//
// A Gate compares the token from an "Authorization: Bearer <token>" header
// against either a plaintext secret (constant-time) or a bcrypt hash. There
// are no sessions; every request is checked on its own.
package auth
