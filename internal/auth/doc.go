// Package auth provides authentication and authorization functionality for the application.
//
// This package implements a Role-Based Access Control (RBAC) system with
// support for multiple authentication sources:
//   - Local database authentication with Argon2id password hashing
//   - LDAP/Active Directory authentication
//   - OpenID Connect (OIDC) authentication with external identity providers
//
// # Authentication Providers
//
// LocalProvider handles traditional username/password authentication against
// the local database with secure Argon2id password hashing.
//
// LDAPProvider connects to LDAP or Active Directory servers and authenticates
// users against the directory.
//
// OIDCProvider implements OAuth2/OIDC flows for authentication with external
// identity providers like Google, Okta, Keycloak, and Azure AD.
//
// # Authorization System
//
// Authorization happens in two layers:
//
//  1. The permission lattice: every user carries exactly one role, roles hold
//     a set of named permissions, and Service.HasPermission answers whether a
//     user's role grants a permission.
//
//  2. The user-management hierarchy: actions that name a target user go
//     through Service.CanPerformAction, which layers the role-kind hierarchy
//     (store manager > shift in charge > inventory executive > staff) and the
//     per-store delegation settings on top of the lattice. The store-manager
//     kind bypasses the lattice entirely; sensitive actions against another
//     store manager come back allowed but flagged with a confirmation
//     warning.
//
// # Middleware
//
// Fiber middleware functions are provided for route protection:
//   - RequirePermission: protect routes requiring a specific permission
//   - RequireAnyPermission: protect routes requiring any of several permissions
//
// Example usage:
//
//	authService := auth.NewService(db)
//
//	hasPermission, err := authService.HasPermission(userID, auth.PermRosterCreate)
//
//	app.Delete("/api/v1/users/:id",
//	    auth.RequirePermission(authService, auth.PermUserDelete),
//	    handler,
//	)
package auth
