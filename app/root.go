// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rosterbase",
	Short: "RosterBase is a staff-roster management service for retail stores",
	Long: `RosterBase is a staff-roster management service for retail stores
that provides a JSON API for managing users, roles, tasks, shift definitions
and daily rosters with planned-versus-actual staffing reconciliation.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
