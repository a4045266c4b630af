package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/mind-engage/mindengage-authoring/internal/authoring"
	"github.com/mind-engage/mindengage-authoring/internal/client"
	"github.com/mind-engage/mindengage-authoring/internal/config"
	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

var (
	cfg = config.Load()
	log = logrus.New()

	serverURL string
	token     string
	user      string
	password  string
	logLevel  string

	api *client.Client
)

var rootCmd = &cobra.Command{
	Use:           "examctl",
	Short:         "edit exams on a mindengage authoring server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
		log.SetOutput(os.Stderr)

		var ts oauth2.TokenSource
		switch {
		case token != "":
			ts = client.StaticToken(token)
		case user != "":
			ts = client.PasswordTokenSource(cmd.Context(), serverURL, user, password)
		}
		api = client.New(serverURL, ts, client.WithLogger(log))
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&serverURL, "server", cfg.ServerURL, "authoring server base URL")
	pf.StringVar(&token, "token", os.Getenv("EXAM_TOKEN"), "bearer token")
	pf.StringVarP(&user, "user", "u", "", "log in as this user")
	pf.StringVarP(&password, "password", "p", "", "password for --user")
	pf.StringVar(&logLevel, "log-level", cfg.LogLevel, "log level")

	rootCmd.AddCommand(createCmd(), showCmd(), addCmd(), scoreCmd(), moveCmd(),
		removeCmd(), statusCmd(), contentCmd(), importCmd())
}

// withSession opens an editing session on examID, runs fn and saves on the
// way out.
func withSession(ctx context.Context, examID string, fn func(s *authoring.Session) error) error {
	s, err := authoring.Open(ctx, api, examID, authoring.Options{
		Delay:        cfg.AutosaveDelay,
		HistoryLimit: cfg.HistoryLimit,
		Logger:       log,
		OnError:      func(err error) { log.WithError(err).Warn("autosave failed") },
	})
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		_ = s.Close(ctx)
		return err
	}
	return s.Close(ctx)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printQuestions(qs []exam.Question) {
	for i, q := range qs {
		fmt.Printf("%2d  %-24s %-16s %6.2f  %s\n", i+1, q.ID, q.Type, q.Score, q.Content)
	}
	fmt.Printf("total %.2f\n", exam.CurrentTotal(qs))
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
