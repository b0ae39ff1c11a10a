// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/multisig/internal/sops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config file utilities",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective config",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				cfg := configFromCommand(cmd)
				out, err := yaml.Marshal(cfg)
				if err != nil {
					slog.Error(err.Error())
					os.Exit(1)
				}
				fmt.Print(string(out))
			},
		},
		&cobra.Command{
			Use:   "encrypt <file>",
			Short: "Encrypt a config file with SOPS and print the result",
			Long: "Encrypt a config file with SOPS and print the result. Save the " +
				"output with a .enc suffix so that it is decrypted on load.",
			Args: cobra.ExactArgs(1),
			// Loading the config is not needed here
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return nil
			},
			Run: func(cmd *cobra.Command, args []string) {
				buf, err := os.ReadFile(args[0])
				if err != nil {
					slog.Error(err.Error())
					os.Exit(1)
				}
				out, err := sops.Encrypt(buf)
				if err != nil {
					slog.Error(err.Error())
					os.Exit(1)
				}
				_, _ = os.Stdout.Write(out)
			},
		},
	)
	return cmd
}
