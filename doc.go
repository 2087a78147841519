// Package main provides the entry point for the RosterBase application.
// It initializes and runs a web server using the Fiber framework that exposes
// a JSON API for managing store staff, roles, tasks, shift definitions and
// daily rosters with actuals reconciliation. The application uses gorm for
// data persistence and seeds the permission lattice on first start.
package main
