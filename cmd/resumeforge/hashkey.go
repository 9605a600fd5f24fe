package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [KEY]",
	Short: "Print a bcrypt hash of an API client key for auth.clients",
	Long: `Hash an API client key with the configured bcrypt cost. Put the output in the
key_hash field of an auth.clients entry. When KEY is omitted it is read from a masked prompt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			var err error
			if key, err = promptSecret("Client key"); err != nil {
				return err
			}
		}

		hash, err := appConfig.Auth.HashKey(key)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash) //nolint:errcheck
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashKeyCmd)
}
