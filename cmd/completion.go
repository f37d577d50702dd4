package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for gitguard.

To load completions:

Bash:
  $ source <(gitguard completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ gitguard completion bash > /etc/bash_completion.d/gitguard
  # macOS:
  $ gitguard completion bash > $(brew --prefix)/etc/bash_completion.d/gitguard

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ gitguard completion zsh > "${fpath[1]}/_gitguard"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ gitguard completion fish | source
  # To load completions for each session, execute once:
  $ gitguard completion fish > ~/.config/fish/completions/gitguard.fish

PowerShell:
  PS> gitguard completion powershell | Out-String | Invoke-Expression
  # To load completions for every new session, run:
  PS> gitguard completion powershell > gitguard.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(w)
		case "zsh":
			return rootCmd.GenZshCompletion(w)
		case "fish":
			return rootCmd.GenFishCompletion(w, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
