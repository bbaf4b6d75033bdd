package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizdoc/internal/service"
)

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Parse a quiz document and store it for a piece of course content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, _ := cmd.Flags().GetString("course")
		content, _ := cmd.Flags().GetString("content")
		title, _ := cmd.Flags().GetString("title")

		raw, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		d, err := openDeps(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer d.close()

		q, err := d.importer.Import(cmd.Context(), service.ImportInput{
			CourseID:  course,
			ContentID: content,
			Title:     title,
			Raw:       raw,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported quiz %s with %d questions (%s).\n", q.ID, len(q.Questions), q.Strategy)
		return nil
	},
}

func init() {
	importCmd.Flags().String("course", "", "Course ID (required)")
	importCmd.Flags().String("content", "", "Content ID within the course (required)")
	importCmd.Flags().String("title", "", "Quiz title")
	_ = importCmd.MarkFlagRequired("course")
	_ = importCmd.MarkFlagRequired("content")
}
