// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lintdispatch",
		Short: "Run a lint tool once per package target",
		Long: `lintdispatch runs an external lint tool against each source module of a
package, manages the tool's cache directory and reports how every run ended.

Tool arguments follow "--":

  lintdispatch run -- lint --strict
  lintdispatch run -- --target Core lint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.opts.packagePath, "package-path", "p", ".", "package root directory")
	pf.StringVarP(&a.opts.configPath, "config", "c", "", "config file (default <package>/.lintdispatch.yaml)")
	pf.BoolVarP(&a.opts.verbose, "verbose", "v", false, "print remarks and debug logs")
	pf.StringVar(&a.opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.opts.logJSON, "log-json", false, "write logs as JSON")

	rootCmd.AddCommand(
		newRunCmd(a),
		newWatchCmd(a),
		newTargetsCmd(a),
		newHistoryCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// toolFlags are shared by run and watch.
type toolFlags struct {
	tool      string
	targets   []string
	cachePath string
}

func (f *toolFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tool, "tool", "", "lint tool executable (overrides config)")
	cmd.Flags().StringArrayVar(&f.targets, "target", nil, "target to lint (repeatable)")
	// Accepted only so the dispatcher can reject it like any other position.
	cmd.Flags().StringVar(&f.cachePath, "cache-path", "", "")
	_ = cmd.Flags().MarkHidden("cache-path")
	// Tool arguments are positional; stop host flag parsing at the first one.
	cmd.Flags().SetInterspersed(false)
}

// passThrough returns the argument list handed to the Dispatcher.
func (f *toolFlags) passThrough(cmd *cobra.Command, args []string) []string {
	out := make([]string, 0, len(args)+2*len(f.targets)+2)
	if cmd.Flags().Changed("cache-path") {
		out = append(out, "--cache-path", f.cachePath)
	}
	for _, t := range f.targets {
		out = append(out, "--target", t)
	}
	return append(out, args...)
}
