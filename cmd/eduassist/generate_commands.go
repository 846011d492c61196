package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"eduassist/internal/api"
	"eduassist/internal/client"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Queue teaching material generation",
	}

	generateCmd.AddCommand(newGenerateDeckCommand(ctx))
	generateCmd.AddCommand(newGeneratePaperCommand(ctx))
	generateCmd.AddCommand(newGenerateManualCommand(ctx))
	generateCmd.AddCommand(newGenerateQuestionsCommand(ctx))

	return generateCmd
}

func newGenerateDeckCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var slides int
	var syllabusID string
	var provider string

	cmd := &cobra.Command{
		Use:   "deck <topic> [topic...]",
		Short: "Queue slide deck generation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				out := cmd.OutOrStdout()
				if len(args) > 1 {
					resp, err := apiClient.GenerateDeckBatch(cmd.Context(), api.GenerateDeckBatchRequest{
						Topics:     args,
						Subject:    subject,
						Slides:     slides,
						SyllabusID: syllabusID,
						Provider:   provider,
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued %d deck jobs\n", len(resp.JobIDs))
					for i, id := range resp.JobIDs {
						if i < len(args) {
							fmt.Fprintf(out, "  job %d: %s\n", id, args[i])
						}
					}
					return nil
				}

				resp, err := apiClient.GenerateDeck(cmd.Context(), api.GenerateDeckRequest{
					Topic:      args[0],
					Subject:    subject,
					Slides:     slides,
					SyllabusID: syllabusID,
					Provider:   provider,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Queued deck job %d\n", resp.JobID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject the deck belongs to")
	cmd.Flags().IntVar(&slides, "slides", 0, "Slide count (default from config)")
	cmd.Flags().StringVar(&syllabusID, "syllabus", "", "Syllabus document id for grounding")
	cmd.Flags().StringVar(&provider, "provider", "", "Preferred model provider (gemini or groq)")
	return cmd
}

func newGeneratePaperCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var questions int
	var marks int
	var sets int
	var difficulty string
	var syllabusID string
	var provider string

	cmd := &cobra.Command{
		Use:   "paper <topic>",
		Short: "Queue question paper generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.GeneratePaper(cmd.Context(), api.GeneratePaperRequest{
					Topic:      args[0],
					Subject:    subject,
					Questions:  questions,
					Marks:      marks,
					Sets:       sets,
					Difficulty: difficulty,
					SyllabusID: syllabusID,
					Provider:   provider,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued question paper job %d\n", resp.JobID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject the paper belongs to")
	cmd.Flags().IntVar(&questions, "questions", 0, "Total question count")
	cmd.Flags().IntVar(&marks, "marks", 0, "Total marks (default from config)")
	cmd.Flags().IntVar(&sets, "sets", 0, "Number of distinct sets")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "Difficulty (easy, medium, hard)")
	cmd.Flags().StringVar(&syllabusID, "syllabus", "", "Syllabus document id for grounding")
	cmd.Flags().StringVar(&provider, "provider", "", "Preferred model provider (gemini or groq)")
	return cmd
}

func newGenerateManualCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var syllabusID string
	var provider string

	cmd := &cobra.Command{
		Use:   "labmanual <topic>",
		Short: "Queue lab manual generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.GenerateManual(cmd.Context(), api.GenerateManualRequest{
					Topic:      args[0],
					Subject:    subject,
					SyllabusID: syllabusID,
					Provider:   provider,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued lab manual job %d\n", resp.JobID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject the manual belongs to")
	cmd.Flags().StringVar(&syllabusID, "syllabus", "", "Syllabus document id for grounding")
	cmd.Flags().StringVar(&provider, "provider", "", "Preferred model provider (gemini or groq)")
	return cmd
}

func newGenerateQuestionsCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var questions int
	var difficulty string
	var provider string

	cmd := &cobra.Command{
		Use:   "questions <topic>",
		Short: "Generate a question set immediately (no artifact)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.Questions(cmd.Context(), api.QuestionsRequest{
					Topic:      args[0],
					Subject:    subject,
					Questions:  questions,
					Difficulty: difficulty,
					Provider:   provider,
				})
				if err != nil {
					return err
				}
				return writeJSON(cmd, resp.Set)
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject the questions belong to")
	cmd.Flags().IntVar(&questions, "questions", 0, "Total question count")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "Difficulty (easy, medium, hard)")
	cmd.Flags().StringVar(&provider, "provider", "", "Preferred model provider (gemini or groq)")
	return cmd
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var filePath string
	var provider string

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Analyze pasted or piped content for deck planning",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readAnalyzeInput(cmd, args, filePath)
			if err != nil {
				return err
			}
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.Analyze(cmd.Context(), api.AnalyzeRequest{
					Content:  content,
					Provider: provider,
				})
				if err != nil {
					return err
				}
				return writeJSON(cmd, resp.Analysis)
			})
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Read content from a file instead of arguments")
	cmd.Flags().StringVar(&provider, "provider", "", "Preferred model provider (gemini or groq)")
	return cmd
}

func readAnalyzeInput(cmd *cobra.Command, args []string, filePath string) (string, error) {
	if filePath = strings.TrimSpace(filePath); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read content file: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", fmt.Errorf("provide content as an argument, via --file, or on stdin")
	}
	return content, nil
}

func newAssistCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assist <message...>",
		Short: "Send a conversational request to the assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.Assist(cmd.Context(), message)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, resp.Message)
				if resp.JobID > 0 {
					fmt.Fprintf(out, "(queued as job %d)\n", resp.JobID)
				}
				return nil
			})
		},
	}
}
