// Package authoidc implements the browser-facing OpenID Connect login flow:
// redirect to the identity provider, handle the callback, and establish a
// local session for the federated user.
package authoidc
