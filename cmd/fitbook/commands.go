package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fitbook/internal/config"
	"fitbook/internal/logging"
	"fitbook/internal/models"
)

func newRootCommand() *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:          "fitbook",
		Short:        "Read, write and vote on fitness class reviews",
		SilenceUsage: true,
	}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger := logging.New(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cmd.ErrOrStderr(),
		})
		logging.SetGlobalLogger(logger)

		a, err = newApp(cmd.Context(), cfg, logger)
		return err
	}

	appRef := func() *app { return a }

	reviewsCmd := &cobra.Command{
		Use:   "reviews",
		Short: "Work with a class's reviews",
	}
	reviewsCmd.AddCommand(
		newListCommand(appRef),
		newSubmitCommand(appRef),
		newVoteCommand(appRef),
		newVotesCommand(appRef),
	)

	root.AddCommand(reviewsCmd, newLoginCommand(appRef), newLogoutCommand(appRef))
	return root
}

func newListCommand(appRef func() *app) *cobra.Command {
	var classID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch and print a class's reviews",
		RunE: withApp(appRef, func(cmd *cobra.Command, a *app) error {
			a.engine.FetchReviews(cmd.Context(), classID)

			out := cmd.OutOrStdout()
			if err := a.engine.Err(classID); err != nil {
				if len(a.engine.Reviews(classID)) == 0 {
					return fmt.Errorf("could not load reviews: %w", err)
				}
				fmt.Fprintf(out, "warning: showing cached reviews: %v\n", err)
			}
			printReviews(out, a.engine.Reviews(classID))
			printSummary(out, a.engine.Summary(classID))
			return nil
		}),
	}
	cmd.Flags().Int64Var(&classID, "class", 0, "class ID")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

func newSubmitCommand(appRef func() *app) *cobra.Command {
	var (
		classID int64
		rating  int
		text    string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Write a review for a class",
		RunE: withApp(appRef, func(cmd *cobra.Command, a *app) error {
			text = strings.TrimSpace(text)
			if rating < 1 || rating > 5 {
				return errors.New("rating must be between 1 and 5")
			}
			if text == "" {
				return errors.New("review text is required")
			}

			a.engine.SubmitReview(cmd.Context(), classID, rating, text)
			if err := a.engine.Err(classID); err != nil {
				return fmt.Errorf("could not submit review: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Review submitted.")
			printReviews(cmd.OutOrStdout(), a.engine.Reviews(classID))
			return nil
		}),
	}
	cmd.Flags().Int64Var(&classID, "class", 0, "class ID")
	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&text, "text", "", "review text")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("rating")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newVoteCommand(appRef func() *app) *cobra.Command {
	var (
		classID  int64
		reviewID int64
		verb     string
	)

	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Like, dislike or withdraw a vote on a review",
		RunE: withApp(appRef, func(cmd *cobra.Command, a *app) error {
			action, err := models.ParseVoteAction(verb)
			if err != nil {
				return err
			}

			a.engine.FetchReviews(cmd.Context(), classID)
			if _, ok := a.engine.Review(classID, reviewID); !ok {
				if err := a.engine.Err(classID); err != nil {
					return fmt.Errorf("could not load reviews: %w", err)
				}
				return fmt.Errorf("review %d not found in class %d", reviewID, classID)
			}

			a.engine.ApplyVoteAction(cmd.Context(), classID, reviewID, action)

			if r, ok := a.engine.Review(classID, reviewID); ok {
				printReviews(cmd.OutOrStdout(), []models.Review{r})
			}
			if err := a.engine.Err(classID); err != nil {
				return fmt.Errorf("vote not saved: %w", err)
			}
			return nil
		}),
	}
	cmd.Flags().Int64Var(&classID, "class", 0, "class ID")
	cmd.Flags().Int64Var(&reviewID, "review", 0, "review ID")
	cmd.Flags().StringVar(&verb, "action", "", "like, dislike or cancel")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("review")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func newVotesCommand(appRef func() *app) *cobra.Command {
	var classID int64

	cmd := &cobra.Command{
		Use:   "votes",
		Short: "Show your locally recorded votes for a class",
		RunE: withApp(appRef, func(cmd *cobra.Command, a *app) error {
			votes, ok := a.votes.Load(classID)
			out := cmd.OutOrStdout()
			if !ok || len(votes) == 0 {
				fmt.Fprintf(out, "No votes recorded for class %d.\n", classID)
				return nil
			}

			ids := make([]int64, 0, len(votes))
			for id := range votes {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REVIEW\tVOTE")
			for _, id := range ids {
				fmt.Fprintf(w, "%d\t%s\n", id, votes[id])
			}
			return w.Flush()
		}),
	}
	cmd.Flags().Int64Var(&classID, "class", 0, "class ID")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

func newLoginCommand(appRef func() *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the bearer token issued by the booking service",
		RunE: withApp(appRef, func(cmd *cobra.Command, a *app) error {
			if err := a.creds.SetToken(cmd.Context(), token); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
			return nil
		}),
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newLogoutCommand(appRef func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored bearer token",
		RunE: withApp(appRef, func(cmd *cobra.Command, a *app) error {
			if err := a.creds.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		}),
	}
}

// withApp runs fn against the app built by the root command and closes the
// app afterwards, whether or not fn failed.
func withApp(appRef func() *app, fn func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a := appRef()
		err := fn(cmd, a)
		if closeErr := a.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return err
	}
}

func printReviews(out io.Writer, reviews []models.Review) {
	if len(reviews) == 0 {
		fmt.Fprintln(out, "No reviews yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRATING\tLIKES\tDISLIKES\tYOU\tTEXT")
	for _, r := range reviews {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\t%s\n", r.ID, r.Rating, r.LikeCount, r.DislikeCount, r.UserLikeStatus, r.Text)
	}
	_ = w.Flush()
}

func printSummary(out io.Writer, s models.ReviewSummary) {
	if s.Count == 0 {
		return
	}
	fmt.Fprintf(out, "\n%d reviews, average %.1f, %d likes, %d dislikes\n", s.Count, s.AverageRating, s.Likes, s.Dislikes)
}
