package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"eduassist/internal/api"
	"eduassist/internal/client"
	"eduassist/internal/records"
)

func newClassesCommand(ctx *commandContext) *cobra.Command {
	classesCmd := &cobra.Command{
		Use:   "classes",
		Short: "Manage taught classes",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				classes, err := apiClient.Classes(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(classes) == 0 {
					fmt.Fprintln(out, "No classes yet")
					return nil
				}
				rows := make([][]string, 0, len(classes))
				for _, class := range classes {
					rows = append(rows, []string{
						fmt.Sprintf("%d", class.ID),
						class.Name,
						class.Department,
						class.Semester,
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Department", "Semester"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	var department string
	var semester string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				id, err := apiClient.AddClass(cmd.Context(), api.ClassRequest{
					Name:       args[0],
					Department: department,
					Semester:   semester,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created class %d (%s)\n", id, args[0])
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&department, "department", "", "Department the class belongs to")
	addCmd.Flags().StringVar(&semester, "semester", "", "Semester label")

	classesCmd.AddCommand(listCmd)
	classesCmd.AddCommand(addCmd)
	return classesCmd
}

func newStudentsCommand(ctx *commandContext) *cobra.Command {
	studentsCmd := &cobra.Command{
		Use:   "students",
		Short: "Manage class rosters",
	}

	var listClass string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List one class roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				classID, err := resolveClassID(cmd, apiClient, listClass)
				if err != nil {
					return err
				}
				students, err := apiClient.Students(cmd.Context(), classID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(students) == 0 {
					fmt.Fprintln(out, "Roster is empty")
					return nil
				}
				rows := make([][]string, 0, len(students))
				for _, student := range students {
					rows = append(rows, []string{
						fmt.Sprintf("%d", student.Roll),
						student.Name,
					})
				}
				table := renderTable([]string{"Roll", "Name"}, rows, []columnAlignment{alignRight, alignLeft})
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&listClass, "class", "", "Class name or id")
	_ = listCmd.MarkFlagRequired("class")

	var addClass string
	var fromRoll int
	var toRoll int
	addCmd := &cobra.Command{
		Use:   "add [roll:name...]",
		Short: "Add students by roll range or explicit roll:name pairs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.StudentsAddRequest{From: fromRoll, To: toRoll}
			for _, arg := range args {
				rollStr, name, _ := strings.Cut(arg, ":")
				roll, err := strconv.Atoi(strings.TrimSpace(rollStr))
				if err != nil || roll <= 0 {
					return fmt.Errorf("invalid student entry %q (want roll or roll:name)", arg)
				}
				req.Students = append(req.Students, api.StudentPayload{Roll: roll, Name: strings.TrimSpace(name)})
			}
			if len(req.Students) == 0 && (fromRoll <= 0 || toRoll < fromRoll) {
				return fmt.Errorf("provide roll:name arguments or a --from/--to roll range")
			}

			return ctx.withClient(func(apiClient *client.Client) error {
				classID, err := resolveClassID(cmd, apiClient, addClass)
				if err != nil {
					return err
				}
				added, err := apiClient.AddStudents(cmd.Context(), classID, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d students\n", added)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&addClass, "class", "", "Class name or id")
	addCmd.Flags().IntVar(&fromRoll, "from", 0, "First roll number of a range")
	addCmd.Flags().IntVar(&toRoll, "to", 0, "Last roll number of a range")
	_ = addCmd.MarkFlagRequired("class")

	studentsCmd.AddCommand(listCmd)
	studentsCmd.AddCommand(addCmd)
	return studentsCmd
}

// resolveClassID accepts either a numeric class id or a class name.
func resolveClassID(cmd *cobra.Command, apiClient *client.Client, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("class is required")
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil && id > 0 {
		return id, nil
	}
	classes, err := apiClient.Classes(cmd.Context())
	if err != nil {
		return 0, err
	}
	for _, class := range classes {
		if strings.EqualFold(strings.TrimSpace(class.Name), value) {
			return class.ID, nil
		}
	}
	return 0, fmt.Errorf("class %q not found", value)
}

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "View and edit the teacher profile",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				profile, err := apiClient.Profile(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd, profile)
			})
		},
	}

	var name, email, department, title, bio string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				profile, err := apiClient.Profile(cmd.Context())
				if err != nil {
					return err
				}
				applyIfSet(cmd, "name", &profile.Name, name)
				applyIfSet(cmd, "email", &profile.Email, email)
				applyIfSet(cmd, "department", &profile.Department, department)
				applyIfSet(cmd, "title", &profile.Title, title)
				applyIfSet(cmd, "bio", &profile.Bio, bio)

				saved, err := apiClient.SaveProfile(cmd.Context(), profile)
				if err != nil {
					return err
				}
				return writeJSON(cmd, saved)
			})
		},
	}
	setCmd.Flags().StringVar(&name, "name", "", "Display name")
	setCmd.Flags().StringVar(&email, "email", "", "Contact email")
	setCmd.Flags().StringVar(&department, "department", "", "Department")
	setCmd.Flags().StringVar(&title, "title", "", "Designation")
	setCmd.Flags().StringVar(&bio, "bio", "", "Short bio")

	profileCmd.AddCommand(showCmd)
	profileCmd.AddCommand(setCmd)
	return profileCmd
}

func applyIfSet(cmd *cobra.Command, flag string, target *string, value string) {
	if cmd.Flags().Changed(flag) {
		*target = value
	}
}

func newAcademicsCommand(ctx *commandContext) *cobra.Command {
	academicsCmd := &cobra.Command{
		Use:   "academics",
		Short: "Track teaching history",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List teaching history rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				items, err := apiClient.Academics(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No academic records yet")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						fmt.Sprintf("%d", item.ID),
						item.Year,
						item.Term,
						item.Course,
						item.Role,
					})
				}
				table := renderTable(
					[]string{"ID", "Year", "Term", "Course", "Role"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	var year, term, role, notes string
	addCmd := &cobra.Command{
		Use:   "add <course>",
		Short: "Add one teaching history row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				id, err := apiClient.AddAcademic(cmd.Context(), records.AcademicRecord{
					Course: args[0],
					Year:   year,
					Term:   term,
					Role:   role,
					Notes:  notes,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added academic record %d\n", id)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&year, "year", "", "Academic year, e.g. 2025-26")
	addCmd.Flags().StringVar(&term, "term", "", "Term or semester")
	addCmd.Flags().StringVar(&role, "role", "", "Role, e.g. instructor")
	addCmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")

	academicsCmd.AddCommand(listCmd)
	academicsCmd.AddCommand(addCmd)
	return academicsCmd
}

func newResearchCommand(ctx *commandContext) *cobra.Command {
	researchCmd := &cobra.Command{
		Use:   "research",
		Short: "Track research output",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List research output rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				items, err := apiClient.Research(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No research records yet")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						fmt.Sprintf("%d", item.ID),
						item.Title,
						item.Venue,
						fmt.Sprintf("%d", item.Year),
						item.Status,
					})
				}
				table := renderTable(
					[]string{"ID", "Title", "Venue", "Year", "Status"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	var venue, status, notes string
	var year int
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add one research output row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				id, err := apiClient.AddResearch(cmd.Context(), records.ResearchRecord{
					Title:  args[0],
					Venue:  venue,
					Year:   year,
					Status: status,
					Notes:  notes,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added research record %d\n", id)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&venue, "venue", "", "Journal or conference")
	addCmd.Flags().IntVar(&year, "year", 0, "Publication year")
	addCmd.Flags().StringVar(&status, "status", "", "Status, e.g. published or under-review")
	addCmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")

	researchCmd.AddCommand(listCmd)
	researchCmd.AddCommand(addCmd)
	return researchCmd
}
