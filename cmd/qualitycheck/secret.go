package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newsquality/internal/api"
)

func hashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret [secret]",
		Short: "Print the bcrypt hash to put under api.clients",
		Long:  "Hashes the secret given as argument, or the first line of stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret string
			if len(args) == 1 {
				secret = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no secret given")
				}
				secret = strings.TrimRight(line, "\r\n")
			}
			if secret == "" {
				return errors.New("secret must not be empty")
			}
			hash, err := api.HashSecret(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
