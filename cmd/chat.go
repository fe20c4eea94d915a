package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/dealfinder-cli/internal/model"
)

var chatThreadID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive shopping conversation",
	Long:  "Opens a REPL. Type a product to search for, paste a product URL, or ask a question. Commands: /history, /clear, /quit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAgent(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		threadID := chatThreadID
		fmt.Println("dealfinder: what are you shopping for? (/quit to exit)")

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			switch line {
			case "/quit", "/exit":
				return nil
			case "/clear":
				if threadID == "" {
					fmt.Println("nothing to clear")
					continue
				}
				if err := env.Agent.ClearThread(ctx, threadID); err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Println("conversation cleared")
				continue
			case "/history":
				if threadID == "" {
					fmt.Println("no conversation yet")
					continue
				}
				turns, err := env.Agent.History(ctx, threadID)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				printHistory(turns)
				continue
			}

			result, err := env.Agent.Chat(ctx, threadID, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			threadID = result.ThreadID

			fmt.Println(result.Response)
			if len(result.Citations) > 0 {
				fmt.Printf("sources: %s\n", strings.Join(result.Citations, ", "))
			}
		}
		return scanner.Err()
	},
}

func printHistory(turns []model.Turn) {
	if len(turns) == 0 {
		fmt.Println("no conversation yet")
		return
	}
	for _, t := range turns {
		fmt.Printf("[%s] %s: %s\n", t.Timestamp.Format("15:04:05"), t.Role, t.Content)
	}
}

func init() {
	chatCmd.Flags().StringVar(&chatThreadID, "thread", "", "resume an existing conversation thread")
	rootCmd.AddCommand(chatCmd)
}
