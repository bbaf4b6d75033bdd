package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quizdoc",
	Short: "Turn quiz documents and model output into validated questions",
	Long: "quizdoc parses loosely formatted quiz documents, generates quizzes from course\n" +
		"content with an LLM, and stores the results for an LMS.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file or postgres DSN (overrides config and QUIZDOC_DB)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (QUIZDOC_CONFIG)")
	rootCmd.PersistentFlags().String("log", "", "Log mode: dev or prod (overrides config)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
