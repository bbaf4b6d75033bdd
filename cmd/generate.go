package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizdoc/internal/quizgen"
	"github.com/abhisek/quizdoc/internal/service"
)

var generateCmd = &cobra.Command{
	Use:   "generate <file|->",
	Short: "Generate a quiz from course content with the configured LLM and store it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, _ := cmd.Flags().GetString("course")
		content, _ := cmd.Flags().GetString("content")
		title, _ := cmd.Flags().GetString("title")
		kindFlag, _ := cmd.Flags().GetString("kind")
		count, _ := cmd.Flags().GetInt("count")

		kind, err := quizgen.ParseKind(kindFlag)
		if err != nil {
			return err
		}
		text, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		d, err := openDeps(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer d.close()

		q, err := d.importer.Generate(cmd.Context(), service.GenerateQuizInput{
			CourseID:  course,
			ContentID: content,
			Title:     title,
			Content:   text,
			Kind:      kind,
			Count:     count,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated quiz %s with %d questions (%s).\n", q.ID, len(q.Questions), q.Strategy)
		return nil
	},
}

func init() {
	generateCmd.Flags().String("course", "", "Course ID (required)")
	generateCmd.Flags().String("content", "", "Content ID within the course (required)")
	generateCmd.Flags().String("title", "", "Quiz title")
	generateCmd.Flags().String("kind", "lesson", "Quiz kind: lesson or assessment")
	generateCmd.Flags().Int("count", 0, "Number of questions (default from config per kind)")
	_ = generateCmd.MarkFlagRequired("course")
	_ = generateCmd.MarkFlagRequired("content")
}
