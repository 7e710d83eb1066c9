// Package http provides HTTP handlers and middleware for the speaker
// registry API.
//
// The router exposes the following endpoints:
//   - POST /auth/register: creates an account and issues a bearer token.
//     Body: {"username","email","password","name"}. Response: {"token"}.
//   - POST /auth/authenticate: validates credentials and returns a token,
//     reusing an unexpired one when available. Body: {"username","password"}
//     (email accepted in place of username).
//   - GET /users, PUT /users: the caller's own profile.
//   - GET /users/{id}, PUT /users/{id}: profile access for self or admin;
//     email is withheld from other viewers.
//   - GET /users/{id}/speakers, POST /users/{id}/speakers: another user's
//     speaker collection, for the owner or an administrator.
//   - GET /speakers, POST /speakers, GET /speakers/{id}, PUT /speakers/{id},
//     DELETE /speakers/{id}: speaker CRUD gated by the owner-or-admin rule.
//
// All protected routes expect `Authorization: Bearer <token>`. Failures are
// status-code driven: 400 bad input, 401 missing/invalid/expired token or
// insufficient rights, 403 wrong password, 404 unknown resource, 409
// uniqueness conflict, 500 internal.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
