package cli

import (
	"github.com/spf13/cobra"

	"github.com/aryankumar/pwrotate/internal/probe"
)

func newProbeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check which hosts accept connections on the SSH port",
		Long: `Probe reads the hosts file and attempts a TCP connection to the SSH port
of every host in parallel. Nothing is executed on the hosts.`,
		Example: `  # Probe hosts from ips.conf
  pwrotate probe

  # Probe another list and print JSON
  pwrotate probe --hosts staging.txt -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts, err := readHosts(opts.cfg)
			if err != nil {
				return err
			}

			results := newProber(opts).Probe(cmd.Context(), hosts)
			opts.logger.Info("reachability check complete",
				"hosts", len(hosts),
				"reachable", len(probe.Reachable(results)))

			return opts.formatter().FormatProbe(cmd.OutOrStdout(), results)
		},
	}

	return cmd
}
