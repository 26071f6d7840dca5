// Package auth provides authentication and authorisation for Laudos Core.
//
// It implements a three-role model (Admin, Examiner, Assistant) with:
//   - bcrypt password hashing, bounded by a weighted semaphore
//   - HS256 session tokens with a configurable TTL and no revocation list
//   - Composable authorisation rules (self-only, role-gated, permission-based)
//   - Static role-permission mapping (compile-time, no database lookup)
//
// Roles are parsed once at the boundary into the closed Role type, so
// "admin" and "Admin" are the same role everywhere downstream.
package auth
