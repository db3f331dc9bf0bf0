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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "amcp",
	Short: "Agent mesh orchestrator",
	Long: `amcp runs an in-process agent mesh: a topic broker, specialist
agents (weather, stocks, travel, chat), and an orchestrator that plans
with an LLM, executes task steps over the mesh, and synthesizes a
final answer. Without a reachable LLM it degrades to a deterministic
keyword router and a rule-based fallback engine.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.amcp/amcp.yaml)")

	// LLM flags
	rootCmd.PersistentFlags().String("llm-endpoint", "http://localhost:11434/api/generate", "LLM chat endpoint URL")
	rootCmd.PersistentFlags().String("llm-model", "qwen2.5", "LLM model name")
	rootCmd.PersistentFlags().Float64("temperature", 0.3, "planning and synthesis temperature")
	rootCmd.PersistentFlags().Int("max-tokens", 1024, "maximum tokens per LLM request")

	// Orchestrator flags
	rootCmd.PersistentFlags().Int("max-task-depth", 5, "maximum steps per plan")
	rootCmd.PersistentFlags().Int("task-timeout-ms", 60000, "per-task timeout in milliseconds")
	rootCmd.PersistentFlags().Bool("parallel", true, "execute independent steps in parallel")
	rootCmd.PersistentFlags().Bool("caching", true, "enable response and intent caches")

	// Cache flags
	rootCmd.PersistentFlags().Int("cache-max-size", 1000, "cache capacity in entries")
	rootCmd.PersistentFlags().Int("cache-ttl-minutes", 60, "cache entry TTL in minutes")

	// Fallback flags
	rootCmd.PersistentFlags().Float64("min-confidence", 70, "fallback rule confidence threshold")
	rootCmd.PersistentFlags().Int("max-rules", 100, "fallback rule cap")
	rootCmd.PersistentFlags().String("rules-dir", "", "fallback rules directory (default: ~/.amcp/fallback-rules)")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	for flag, key := range map[string]string{
		"llm-endpoint":      "llm.endpoint",
		"llm-model":         "llm.model",
		"temperature":       "llm.temperature",
		"max-tokens":        "llm.max_tokens",
		"max-task-depth":    "orchestrator.max_task_depth",
		"task-timeout-ms":   "orchestrator.task_timeout_ms",
		"parallel":          "orchestrator.parallel_execution",
		"caching":           "orchestrator.task_caching",
		"cache-max-size":    "cache.max_size",
		"cache-ttl-minutes": "cache.ttl_minutes",
		"min-confidence":    "fallback.min_confidence",
		"max-rules":         "fallback.max_rules",
		"rules-dir":         "fallback.rules_dir",
		"log-level":         "logging.level",
		"log-format":        "logging.format",
	} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
}

// initConfig reads the config file and AMCP_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".amcp"))
		}
		viper.SetConfigName("amcp")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("AMCP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; flags and defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
}
