package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryankumar/pwrotate/internal/password"
)

func newGenpassCmd(opts *rootOptions) *cobra.Command {
	var count int
	var length int

	cmd := &cobra.Command{
		Use:   "genpass",
		Short: "Print generated passwords without changing anything",
		Long: `Genpass prints passwords from the same generator used by rotate. Each
contains at least one lowercase letter, uppercase letter, digit and symbol.`,
		Example: `  # One password of the configured length
  pwrotate genpass

  # Five 20 character passwords
  pwrotate genpass -n 5 -l 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be at least 1, got %d", count)
			}
			if !cmd.Flags().Changed("length") {
				length = opts.cfg.PasswordLength
			}

			gen := password.NewGenerator()
			for i := 0; i < count; i++ {
				pw, err := gen.Generate(length)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pw)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of passwords to print")
	cmd.Flags().IntVarP(&length, "length", "l", password.DefaultLength, "password length (default from --password-length)")

	return cmd
}
