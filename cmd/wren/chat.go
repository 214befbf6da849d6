package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive interview in the terminal",
	Long: `Starts (or resumes, with --session) an interview and reads respondent
answers from stdin, one per line. Type /quit to leave; the session stays
checkpointed and can be resumed later with the same id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "Session id to resume")
}

func runChat(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	resp, err := eng.ctrl.Start(ctx, chatSessionID)
	if err != nil {
		return err
	}
	fmt.Printf("Session %s\n\n", resp.SessionID)
	fmt.Printf("WREN: %s\n\n", resp.Message)
	if resp.IsComplete {
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Print("YOU: ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			fmt.Printf("Session %s checkpointed, resume with: wren chat --session %s\n", resp.SessionID, resp.SessionID)
			return nil
		}

		stepResp, err := eng.ctrl.Step(ctx, resp.SessionID, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(os.Stderr, "step failed (your message was not recorded, try again): %v\n", err)
			continue
		}

		fmt.Printf("\nWREN: %s\n\n", stepResp.Message)
		if stepResp.IsComplete {
			fmt.Printf("Interview complete after %d turns.\n", stepResp.TurnCount)
			return nil
		}
	}
}
