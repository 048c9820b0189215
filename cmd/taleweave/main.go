package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/memory"
	"github.com/taleweave/taleweave/pkg/models"
)

var (
	configPath string
	owner      string
)

func main() {
	root := &cobra.Command{
		Use:           "taleweave",
		Short:         "Long-term memory for roleplay characters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&owner, "owner", "", "character the memories belong to")

	root.AddCommand(seedCmd(), journalCmd(), recallCmd(), promptCmd(), forgetCmd())

	if err := root.Execute(); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func openService(ctx context.Context) (*memory.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return memory.Open(ctx, cfg)
}

func requireOwner() error {
	if owner == "" {
		return fmt.Errorf("--owner is required")
	}
	return nil
}

func seedCmd() *cobra.Command {
	var persona, firstMessage string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store persona and first-message seed memories for a character",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireOwner(); err != nil {
				return err
			}
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			return svc.SeedOwner(cmd.Context(), owner, persona, firstMessage)
		},
	}
	cmd.Flags().StringVar(&persona, "persona", "", "persona description")
	cmd.Flags().StringVar(&firstMessage, "first-message", "", "character's opening line")
	return cmd
}

func journalCmd() *cobra.Command {
	var sentiment float64
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Build journal entries from a transcript on stdin",
		Long: `Reads a transcript from stdin, one turn per line in the form
"role: text" (roles: user, assistant), and stores journal entries.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireOwner(); err != nil {
				return err
			}
			turns, err := readTranscript(os.Stdin)
			if err != nil {
				return err
			}
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			rel := memory.Relationship{Sentiment: sentiment}

			if rebuild {
				entries, final, err := svc.RebuildJournal(cmd.Context(), owner, turns, rel)
				if err != nil {
					return err
				}
				for _, entry := range entries {
					fmt.Println("-", entry.Record.Summary)
				}
				fmt.Printf("%d entries, relationship now %s (%.2f)\n", len(entries), final.Status, final.Sentiment)
				return nil
			}

			entry, err := svc.CreateJournalEntry(cmd.Context(), owner, turns, rel)
			if err != nil {
				return err
			}
			if entry == nil {
				fmt.Println("no entry produced")
				return nil
			}
			fmt.Println("-", entry.Record.Summary)
			fmt.Printf("relationship now %s (%.2f)\n", entry.Relationship.Status, entry.Relationship.Sentiment)
			return nil
		},
	}
	cmd.Flags().Float64Var(&sentiment, "sentiment", 0, "current relationship sentiment")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "replay the whole transcript in chunks")
	return cmd
}

func recallCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recall [query]",
		Short: "Retrieve the memories most relevant to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(); err != nil {
				return err
			}
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := svc.RetrieveRelevantMemories(cmd.Context(), args[0], owner, limit, nil)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("no memories found")
				return nil
			}
			for _, rec := range recs {
				fmt.Printf("- [%s %.2f] %s\n", rec.Kind, rec.Importance, rec.Summary)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum memories to return (0 = configured default)")
	return cmd
}

func promptCmd() *cobra.Command {
	var persona, scenario string
	cmd := &cobra.Command{
		Use:   "prompt [query]",
		Short: "Assemble the full token-budgeted prompt for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(); err != nil {
				return err
			}
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			msgs, err := svc.BuildPromptContext(cmd.Context(), owner, persona, scenario, args[0], nil)
			if err != nil {
				return err
			}
			for _, msg := range msgs {
				fmt.Printf("[%s]\n%s\n\n", msg.Role, msg.Content)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&persona, "persona", "", "persona description")
	cmd.Flags().StringVar(&scenario, "scenario", "", "scenario text for the first turn")
	return cmd
}

func forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Delete every memory belonging to a character",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireOwner(); err != nil {
				return err
			}
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			n, err := svc.ClearMemoriesForOwner(cmd.Context(), owner)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d memories for %s\n", n, owner)
			return nil
		},
	}
}

// readTranscript parses "role: text" lines; lines without a known role
// prefix continue the previous turn.
func readTranscript(r *os.File) ([]models.Message, error) {
	scanner := bufio.NewScanner(r)
	var turns []models.Message
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		role, content, found := strings.Cut(line, ":")
		role = strings.TrimSpace(strings.ToLower(role))
		if found && (role == models.RoleUser || role == models.RoleAssistant || role == models.RoleSystem) {
			turns = append(turns, models.Message{Role: role, Content: strings.TrimSpace(content)})
			continue
		}
		if len(turns) > 0 {
			turns[len(turns)-1].Content += "\n" + line
			continue
		}
		turns = append(turns, models.Message{Role: models.RoleUser, Content: line})
	}
	return turns, scanner.Err()
}
