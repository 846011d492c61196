package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var apiFlag string
	var tokenFlag string
	var configFlag string

	ctx := newCommandContext(&apiFlag, &tokenFlag, &configFlag)

	rootCmd := &cobra.Command{
		Use:           "eduassist",
		Short:         "EduAssist teaching assistant CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "Daemon API address (host:port)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Bearer token for the daemon API")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	for _, cmd := range newDaemonCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newAssistCommand(ctx))
	rootCmd.AddCommand(newAttendanceCommand(ctx))
	rootCmd.AddCommand(newClassesCommand(ctx))
	rootCmd.AddCommand(newStudentsCommand(ctx))
	rootCmd.AddCommand(newTimetableCommand(ctx))
	rootCmd.AddCommand(newEventsCommand(ctx))
	rootCmd.AddCommand(newTasksCommand(ctx))
	rootCmd.AddCommand(newTodayCommand(ctx))
	rootCmd.AddCommand(newProfileCommand(ctx))
	rootCmd.AddCommand(newAcademicsCommand(ctx))
	rootCmd.AddCommand(newResearchCommand(ctx))
	rootCmd.AddCommand(newSyllabusCommand(ctx))
	rootCmd.AddCommand(newArtifactsCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
