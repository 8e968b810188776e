package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand prints a shell completion script for the command tree.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Print a shell completion script",
		Long: `Print a completion script for aarunpack to standard output.

The script completes subcommands (unpack, classpath, session, cache, serve)
and their flags. Source it for the current shell, or install it once:

  bash        aarunpack completion bash > ~/.local/share/bash-completion/completions/aarunpack
  zsh         aarunpack completion zsh > "${fpath[1]}/_aarunpack"
  fish        aarunpack completion fish > ~/.config/fish/completions/aarunpack.fish
  powershell  aarunpack completion powershell | Out-String | Invoke-Expression

Zsh needs compinit enabled; start a new shell afterwards.`,
		Example: `  source <(aarunpack completion bash)
  aarunpack completion fish | source`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
