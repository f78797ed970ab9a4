// Package registry lets command packages contribute subcommands from init.
package registry

import (
	"github.com/spf13/cobra"
)

// CommandRegistry collects functions that attach commands to a parent.
type CommandRegistry struct {
	fillers []func(*cobra.Command)
}

// Register adds a function that receives the parent command.
func (r *CommandRegistry) Register(fn func(parent *cobra.Command)) {
	r.fillers = append(r.fillers, fn)
}

// FromGetter adds the command returned by getter to the parent.
func (r *CommandRegistry) FromGetter(getter func() *cobra.Command) {
	r.Register(func(parent *cobra.Command) {
		parent.AddCommand(getter())
	})
}

// FillCommands attaches every registered command to cmd.
func (r *CommandRegistry) FillCommands(cmd *cobra.Command) {
	for _, fill := range r.fillers {
		fill(cmd)
	}
}
