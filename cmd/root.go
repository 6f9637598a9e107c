package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// AppName is reported in logs and help output.
const AppName = "srcdump"

// NewRootCmd builds the command tree. Commands log through logger.
func NewRootCmd(logger *zap.Logger) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}

	root := &cobra.Command{
		Use:   AppName,
		Short: "srcdump exports a project's source into a single text file",
		Long: `srcdump walks a project directory and writes src.txt: a directory tree
followed by the contents of every selected file, ready to paste into a
review or an LLM prompt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newExportCmd(logger))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command tree with os.Args.
func Execute(logger *zap.Logger) error {
	return NewRootCmd(logger).Execute()
}
