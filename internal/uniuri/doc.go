// Package uniuri generates cryptographically secure random strings suitable for use as unique identifiers.
// It provides functions to create random strings with configurable length and character sets,
// plus a helper for generating staff employee codes.
package uniuri
