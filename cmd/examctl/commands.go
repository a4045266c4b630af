package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-authoring/internal/authoring"
	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

func createCmd() *cobra.Command {
	var e exam.Exam
	cmd := &cobra.Command{
		Use:   "create",
		Short: "create a draft exam",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := api.CreateExam(cmd.Context(), e)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&e.Title, "title", "", "exam title")
	f.StringVar(&e.Description, "description", "", "exam description")
	f.IntVar(&e.DurationMin, "duration", 60, "duration in minutes")
	f.Float64Var(&e.TotalScore, "total", 100, "total score")
	f.Float64Var(&e.PassScore, "pass", 60, "pass score")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func showCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show EXAM",
		Short: "print an exam and its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := api.FetchExam(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(e)
			}
			fmt.Printf("%s  %s  [%s]  total %.2f  pass %.2f  %d min\n",
				e.ID, e.Title, e.Status, e.TotalScore, e.PassScore, e.DurationMin)
			printQuestions(e.Questions)
			st := exam.QuestionStats(e.Questions)
			fmt.Printf("%d questions: %d single, %d multiple, %d true/false, %d fill-in, %d essay; %.2f points\n",
				st.TotalCount, st.SingleChoiceCount, st.MultipleChoiceCount, st.TrueFalseCount,
				st.FillBlankCount, st.EssayCount, st.TotalScore)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func addCmd() *cobra.Command {
	var (
		q    exam.Question
		typ  string
		at   int
		bank bool
	)
	cmd := &cobra.Command{
		Use:   "add EXAM",
		Short: "add a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q.ID = exam.NewTempID()
			q.Type = exam.QuestionType(typ)
			return withSession(cmd.Context(), args[0], func(s *authoring.Session) error {
				var (
					qs  []exam.Question
					err error
				)
				if bank {
					qs, err = s.Editor().InsertFromExternalSource(cmd.Context(), q, at-1)
				} else {
					qs, err = s.Editor().Add(cmd.Context(), q)
				}
				if err != nil {
					return err
				}
				printQuestions(qs)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&typ, "type", string(exam.SingleChoice), "question type")
	f.StringVar(&q.Content, "content", "", "question text")
	f.StringSliceVar(&q.Options, "option", nil, "answer option, repeatable")
	f.StringVar(&q.CorrectAnswer, "answer", "", "correct answer letters")
	f.Float64Var(&q.Score, "score", authoring.DefaultBankScore, "score")
	f.StringVar(&q.Explanation, "explanation", "", "explanation")
	f.BoolVar(&bank, "bank", false, "insert as a bank question at --at")
	f.IntVar(&at, "at", 1, "1-based position for --bank")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score EXAM QUESTION SCORE",
		Short: "change a question's score",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("score: %w", err)
			}
			return withSession(cmd.Context(), args[0], func(s *authoring.Session) error {
				qs, err := s.Editor().Update(cmd.Context(), args[1], exam.QuestionPatch{Score: &score})
				if err != nil {
					return err
				}
				printQuestions(qs)
				return nil
			})
		},
	}
}

func moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move EXAM FROM TO",
		Short: "move a question between 1-based positions",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), args[0], func(s *authoring.Session) error {
				qs, err := s.Editor().Reorder(cmd.Context(), from-1, to-1)
				if err != nil {
					return err
				}
				printQuestions(qs)
				return nil
			})
		},
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove EXAM QUESTION",
		Short: "delete a question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), args[0], func(s *authoring.Session) error {
				qs, err := s.Editor().Remove(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				printQuestions(qs)
				return nil
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status EXAM draft|published|archived",
		Short: "change the exam status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), args[0], func(s *authoring.Session) error {
				from := s.Exam().Status
				if err := s.Transition(cmd.Context(), exam.Status(args[1])); err != nil {
					var te *exam.TransitionError
					if errors.As(err, &te) {
						return fmt.Errorf("%s", te.Message())
					}
					return err
				}
				fmt.Printf("%s -> %s\n", from, args[1])
				return nil
			})
		},
	}
}

func contentCmd() *cobra.Command {
	var (
		status             string
		title, description string
		duration           int
		total, pass        float64
	)
	cmd := &cobra.Command{
		Use:   "content EXAM",
		Short: "edit exam content and optionally its status in one step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p exam.ContentPatch
			f := cmd.Flags()
			if f.Changed("title") {
				p.Title = &title
			}
			if f.Changed("description") {
				p.Description = &description
			}
			if f.Changed("duration") {
				p.DurationMin = &duration
			}
			if f.Changed("total") {
				p.TotalScore = &total
			}
			if f.Changed("pass") {
				p.PassScore = &pass
			}
			return withSession(cmd.Context(), args[0], func(s *authoring.Session) error {
				if err := s.SaveContent(cmd.Context(), exam.Status(status), p); err != nil {
					return err
				}
				return printJSON(s.Exam())
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&status, "status", "", "also move to this status")
	f.StringVar(&title, "title", "", "title")
	f.StringVar(&description, "description", "", "description")
	f.IntVar(&duration, "duration", 0, "duration in minutes")
	f.Float64Var(&total, "total", 0, "total score")
	f.Float64Var(&pass, "pass", 0, "pass score")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import EXAM FILE.txt",
		Short: "bulk import questions from a text file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			st, err := f.Stat()
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), args[0], func(s *authoring.Session) error {
				res, err := s.Import(cmd.Context(), st.Name(), f, st.Size(), func(pct int) {
					fmt.Fprintf(os.Stderr, "\rupload %3d%%", pct)
				})
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d, failed %d, exam now has %d questions\n",
					res.SuccessCount, res.FailedCount, res.TotalQuestions)
				for _, e := range res.Errors {
					fmt.Printf("  row %d: %s\n", e.Row, e.Message)
				}
				return nil
			})
		},
	}
}
