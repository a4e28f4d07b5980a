// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "Refugia authentication service",
		Long: `authd is the account and session service for the Refugia
pet-adoption platform: registration, email verification, login,
and password resets over a cookie-based session API.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
