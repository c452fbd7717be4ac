package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keyplate/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for keyplate.

Bash:
  $ source <(keyplate completion bash)

Zsh:
  $ keyplate completion zsh > "${fpath[1]}/_keyplate"

Fish:
  $ keyplate completion fish | source

PowerShell:
  PS> keyplate completion powershell | Out-String | Invoke-Expression

Outline names complete from the configuration given as the first argument.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

var configExtensions = []string{"toml", "json"}

// completeConfigThenOutlines completes a configuration file for the first
// argument and the outlines it declares for the rest.
func completeConfigThenOutlines(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return configExtensions, cobra.ShellCompDirectiveFilterFileExt
	}
	cfg, err := pipeline.LoadConfig(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, name := range pipeline.OutlineNames(cfg) {
		if strings.HasPrefix(name, toComplete) && !slices.Contains(args[1:], name) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeConfig completes a single configuration file argument.
func completeConfig(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return configExtensions, cobra.ShellCompDirectiveFilterFileExt
}
