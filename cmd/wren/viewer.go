package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wren/internal/checkpoint"
)

var (
	purgeExpired   bool
	profileSummary bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List active interview sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessions(cmd.Context())
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile [session-id]",
	Short: "Show the taste profile for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProfile(cmd.Context(), args[0])
	},
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript [session-id]",
	Short: "Show the conversation transcript for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranscript(cmd.Context(), args[0])
	},
}

func init() {
	sessionsCmd.Flags().BoolVar(&purgeExpired, "purge", false, "Remove expired checkpoints first (sqlite driver)")
	profileCmd.Flags().BoolVar(&profileSummary, "summary", false, "Print a short human-readable summary instead of JSON")
}

func runSessions(ctx context.Context) error {
	eng := newViewer(ctx)
	defer eng.Close()

	store := eng.store
	if f, ok := store.(*checkpoint.Fallback); ok {
		store = f.Primary()
	}

	if purgeExpired {
		if purger, ok := store.(interface {
			PurgeExpired(context.Context) (int64, error)
		}); ok {
			n, err := purger.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("purged %d expired checkpoint(s)\n", n)
		} else {
			fmt.Println("--purge has no effect: the configured store expires checkpoints itself")
		}
	}

	ids, err := eng.ctrl.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no active sessions")
		return nil
	}

	reporter, _ := store.(checkpoint.TTLReporter)
	for _, id := range ids {
		if reporter == nil {
			fmt.Println(id)
			continue
		}
		ttl, err := reporter.TTLRemaining(ctx, id)
		if err != nil {
			fmt.Println(id)
			continue
		}
		fmt.Printf("%s\texpires in %s\n", id, ttl.Round(time.Second))
	}
	return nil
}

func runProfile(ctx context.Context, sessionID string) error {
	eng := newViewer(ctx)
	defer eng.Close()

	resp, err := eng.ctrl.GetProfile(ctx, sessionID)
	if err != nil {
		return err
	}
	if resp.Profile == nil {
		fmt.Printf("session %s has no profile yet (turns: %d, complete: %v)\n",
			sessionID, resp.TurnCount, resp.IsComplete)
		return nil
	}

	if profileSummary {
		fmt.Println(resp.Profile.Summary())
		return nil
	}
	out, err := json.MarshalIndent(resp.Profile, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runTranscript(ctx context.Context, sessionID string) error {
	eng := newViewer(ctx)
	defer eng.Close()

	transcript, err := eng.ctrl.Transcript(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Println(transcript)
	return nil
}
