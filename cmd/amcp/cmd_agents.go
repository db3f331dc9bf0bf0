// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teradata-labs/amcp/internal/log"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the mesh's agents and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := log.New("error", viper.GetString("logging.format"))
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		rt, err := buildRuntime(logger)
		if err != nil {
			return err
		}
		defer rt.close(cmd.Context())

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AGENT\tSTATE\tCAPABILITIES\tDESCRIPTION")
		for _, info := range rt.mesh.Registry().List() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				info.AgentID, info.State, strings.Join(info.Capabilities, ","), info.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}
