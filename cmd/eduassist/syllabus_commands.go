package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"eduassist/internal/client"
)

func newSyllabusCommand(ctx *commandContext) *cobra.Command {
	syllabusCmd := &cobra.Command{
		Use:   "syllabus",
		Short: "Store and search syllabus documents",
	}

	var subject string
	uploadCmd := &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a syllabus PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read syllabus file: %w", err)
			}
			return ctx.withClient(func(apiClient *client.Client) error {
				doc, err := apiClient.UploadSyllabus(cmd.Context(), filepath.Base(args[0]), subject, data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored syllabus %s (%d pages)\n", doc.ID, doc.Pages)
				return nil
			})
		},
	}
	uploadCmd.Flags().StringVar(&subject, "subject", "", "Subject the syllabus covers")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored syllabus documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				docs, err := apiClient.SyllabusDocs(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(docs) == 0 {
					fmt.Fprintln(out, "No syllabus documents yet")
					return nil
				}
				rows := make([][]string, 0, len(docs))
				for _, doc := range docs {
					rows = append(rows, []string{
						doc.ID,
						doc.Subject,
						doc.Filename,
						fmt.Sprintf("%d", doc.Pages),
						doc.UploadedAt.UTC().Format("2006-01-02 15:04"),
					})
				}
				table := renderTable(
					[]string{"ID", "Subject", "File", "Pages", "Uploaded"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	var limit int
	searchCmd := &cobra.Command{
		Use:   "search <docID> <query...>",
		Short: "Score syllabus pages against a query",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			for i, arg := range args[1:] {
				if i > 0 {
					query += " "
				}
				query += arg
			}
			return ctx.withClient(func(apiClient *client.Client) error {
				matches, err := apiClient.SearchSyllabus(cmd.Context(), args[0], query, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(matches) == 0 {
					fmt.Fprintln(out, "No matching pages")
					return nil
				}
				for _, match := range matches {
					fmt.Fprintf(out, "Page %d (score %d):\n  %s\n", match.PageNo, match.Score, match.Snippet)
				}
				return nil
			})
		},
	}
	searchCmd.Flags().IntVar(&limit, "limit", 0, "Maximum pages to return")

	syllabusCmd.AddCommand(uploadCmd)
	syllabusCmd.AddCommand(listCmd)
	syllabusCmd.AddCommand(searchCmd)
	return syllabusCmd
}
