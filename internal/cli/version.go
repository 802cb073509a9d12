package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryankumar/pwrotate/pkg/version"
)

// newVersionCmd creates the version command
func newVersionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for pwrotate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, opts)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command, opts *rootOptions) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	// Only an explicit -o changes the plain listing
	if !cmd.Flags().Changed("output") {
		fmt.Fprintln(out, info.String())
		return nil
	}

	switch opts.cfg.Output {
	case "json":
		data, err := info.JSON()
		if err != nil {
			return fmt.Errorf("failed to marshal version info to JSON: %w", err)
		}
		fmt.Fprintln(out, data)
	case "yaml":
		data, err := info.YAML()
		if err != nil {
			return fmt.Errorf("failed to marshal version info to YAML: %w", err)
		}
		fmt.Fprint(out, data)
	default:
		return opts.formatter().Format(out, info.Map())
	}
	return nil
}
