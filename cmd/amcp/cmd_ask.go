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

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teradata-labs/amcp/internal/log"
	"github.com/teradata-labs/amcp/pkg/task"
)

var askCmd = &cobra.Command{
	Use:   "ask \"<request>\"",
	Short: "Answer one request through the mesh",
	Long: `Plans the request, dispatches task steps to the specialist agents,
and prints the synthesized answer. Falls back to the keyword router
and rule engine when the LLM endpoint is unreachable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := log.New(viper.GetString("logging.level"), viper.GetString("logging.format"))
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		rt, err := buildRuntime(logger)
		if err != nil {
			return err
		}
		defer rt.close(cmd.Context())

		request := strings.Join(args, " ")
		answer, err := rt.orchestrator.Orchestrate(cmd.Context(), request, task.UserContext{
			UserID:    userID,
			SessionID: uuid.NewString(),
		})
		if err != nil {
			return fmt.Errorf("orchestrate: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

var userID string

func init() {
	askCmd.Flags().StringVar(&userID, "user", "cli", "user ID attached to the request context")
	rootCmd.AddCommand(askCmd)
}
