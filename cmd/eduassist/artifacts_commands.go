package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"eduassist/internal/client"
)

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	artifactsCmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Browse finished teaching materials",
	}

	var kind string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List finished artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.Artifacts(cmd.Context(), kind)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Artifacts) == 0 {
					fmt.Fprintln(out, "No artifacts yet")
					return nil
				}
				rows := make([][]string, 0, len(resp.Artifacts))
				for _, artifact := range resp.Artifacts {
					rows = append(rows, []string{
						artifact.ID,
						formatStatusLabel(artifact.Kind),
						artifact.Title,
						artifact.Subject,
						artifact.CreatedAt.UTC().Format("2006-01-02 15:04"),
					})
				}
				table := renderTable(
					[]string{"ID", "Kind", "Title", "Subject", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&kind, "kind", "", "Filter by artifact kind (deck, question_paper, lab_manual)")

	var output string
	downloadCmd := &cobra.Command{
		Use:   "download <artifactID>",
		Short: "Download one artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				path := strings.TrimSpace(output)
				if path == "" {
					path = filepath.Base(args[0])
				}
				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer file.Close()
				if err := apiClient.DownloadArtifact(cmd.Context(), args[0], file); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved artifact to %s\n", path)
				return nil
			})
		},
	}
	downloadCmd.Flags().StringVarP(&output, "output", "o", "", "Destination file path")

	artifactsCmd.AddCommand(listCmd)
	artifactsCmd.AddCommand(downloadCmd)
	return artifactsCmd
}
