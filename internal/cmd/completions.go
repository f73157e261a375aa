package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// completeChannels completes the repository channel flag.
func completeChannels(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	channels := []string{"stable", "test", "nightly"}

	var names []string
	for _, c := range channels {
		if strings.HasPrefix(c, toComplete) {
			names = append(names, c)
		}
	}

	return names, cobra.ShellCompDirectiveNoFileComp
}

// registerCompletions registers dynamic completions after all commands
// are defined.
func registerCompletions() {
	if err := installCmd.RegisterFlagCompletionFunc("channel", completeChannels); err != nil {
		// Completions are optional.
		_ = err
	}
}

func init() {
	cobra.OnInitialize(registerCompletions)
}
