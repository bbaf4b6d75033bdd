package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizdoc/internal/quizdoc"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file|->",
	Short: "Parse a quiz document and print the questions as JSON",
	Long: "Parse a human-authored quiz document or raw model output and print the\n" +
		"recovered questions as JSON. Nothing is stored.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assessment, _ := cmd.Flags().GetBool("assessment")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		raw, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		pc := parserConfig(cfg)
		if assessment {
			pc.Validators = append(pc.Validators, &quizdoc.AssessmentValidator{Answers: quizdoc.AssessmentAnswerCount})
		}
		res, err := quizdoc.NewParser(pc).Parse(raw)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().Bool("assessment", false, "Apply the final-assessment filter (4 answers, exactly one correct)")
}
