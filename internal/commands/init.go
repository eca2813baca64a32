package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/splitbooks-dev/splitbooks/internal/config"
)

func newInitCommand() *cobra.Command {
	var partyA string
	var partyB string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new splitbooks workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(workspaceDir(args))
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(cmd, absDir, partyA, partyB)
		},
	}

	cmd.Flags().StringVar(&partyA, "party-a", "", "first participant's name (required)")
	_ = cmd.MarkFlagRequired("party-a")
	cmd.Flags().StringVar(&partyB, "party-b", "", "second participant's name (required)")
	_ = cmd.MarkFlagRequired("party-b")

	return cmd
}

const envExample = `# splitbooks runtime environment
#LISTEN_ADDR=:8080
#STORE_PATH=splitbooks.db
#LOG_LEVEL=info
#LOG_FORMAT=json
`

func runInit(cmd *cobra.Command, dir, partyA, partyB string) error {
	for _, d := range []string{"imports", "exports", "logs"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(partyA, partyB)
	if err := config.Save(filepath.Join(dir, configFile), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".env.example"), []byte(envExample), 0o644); err != nil {
		return fmt.Errorf("writing .env.example: %w", err)
	}

	gitignore := "exports/\nlogs/\n*.db\n*.db-shm\n*.db-wal\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "imports", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Initialized splitbooks workspace for %s and %s at %s\nEdit %s to add sources, then run: splitbooks process\n",
		partyA, partyB, dir, configFile)
	return nil
}
