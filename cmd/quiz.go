package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizdoc/internal/store"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "List, show and delete stored quizzes",
}

var quizListCmd = &cobra.Command{
	Use:   "list",
	Short: "List quizzes of a course, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		course, _ := cmd.Flags().GetString("course")

		s, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		list, err := s.QuizRepo().ListByCourse(cmd.Context(), course)
		if err != nil {
			return fmt.Errorf("list quizzes: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No quizzes found.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-20s  %-10s  %5s  %-19s  %s\n",
			"ID", "Content", "Source", "Qs", "Created", "Title")
		fmt.Fprintln(out, strings.Repeat("─", 110))
		for _, q := range list {
			fmt.Fprintf(out, "%-36s  %-20s  %-10s  %5d  %-19s  %s\n",
				q.ID,
				truncate(q.ContentID, 20),
				q.Source,
				q.QuestionCount,
				q.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				q.Title,
			)
		}
		return nil
	},
}

var quizShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		s, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		q, err := s.QuizRepo().Get(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("quiz %s not found", args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(q)
		}

		fmt.Fprintf(out, "ID:        %s\n", q.ID)
		fmt.Fprintf(out, "Course:    %s\n", q.CourseID)
		fmt.Fprintf(out, "Content:   %s\n", q.ContentID)
		fmt.Fprintf(out, "Title:     %s\n", q.Title)
		fmt.Fprintf(out, "Source:    %s (%s)\n", q.Source, q.Strategy)
		fmt.Fprintf(out, "Created:   %s\n", q.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		for i, question := range q.Questions {
			fmt.Fprintf(out, "\n%d. %s [%s]\n", i+1, question.Text, question.Difficulty)
			for j, a := range question.Answers {
				mark := " "
				if a.IsCorrect {
					mark = "*"
				}
				fmt.Fprintf(out, "   %s %c) %s\n", mark, 'a'+j, a.Text)
				if a.Explanation != "" {
					fmt.Fprintf(out, "        %s\n", a.Explanation)
				}
			}
		}
		return nil
	},
}

var quizDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.QuizRepo().Delete(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("quiz %s not found", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted quiz %s.\n", args[0])
		return nil
	},
}

func init() {
	quizListCmd.Flags().String("course", "", "Course ID (required)")
	_ = quizListCmd.MarkFlagRequired("course")
	quizShowCmd.Flags().Bool("json", false, "Print as JSON")

	quizCmd.AddCommand(quizListCmd)
	quizCmd.AddCommand(quizShowCmd)
	quizCmd.AddCommand(quizDeleteCmd)
}
