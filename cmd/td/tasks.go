package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/taskdock/taskdock/internal/task"
	"github.com/taskdock/taskdock/internal/types"
	"github.com/taskdock/taskdock/internal/ui"
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a task",
	Long: `Create a task with status todo.

The deadline accepts RFC 3339 timestamps or natural language, e.g.
"tomorrow at 5pm". With --interactive the fields are collected in a
form instead of flags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interactive, _ := cmd.Flags().GetBool("interactive")

		var input task.CreateInput
		if interactive {
			in, err := promptCreateInput()
			if err != nil {
				return err
			}
			input = *in
		} else {
			if len(args) == 0 {
				return fmt.Errorf("a title argument is required (or use --interactive)")
			}
			desc, _ := cmd.Flags().GetString("desc")
			due, _ := cmd.Flags().GetString("due")
			prio, _ := cmd.Flags().GetString("priority")

			deadline, err := parseDue(due)
			if err != nil {
				return err
			}
			priority, err := parsePriority(prio)
			if err != nil {
				return err
			}
			input = task.CreateInput{
				Title:       args[0],
				Description: desc,
				Deadline:    deadline,
				Priority:    priority,
			}
		}

		created, err := app.service.Create(cmd.Context(), input)
		if err != nil {
			return err
		}

		fmt.Printf("%s Created %s\n", ui.RenderPass("✓"), ui.RenderBold(created.ID))
		printTask(created)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, most recently touched first",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusFlag, _ := cmd.Flags().GetString("status")

		var tasks []*types.Task
		var err error
		if statusFlag != "" {
			status, perr := parseStatus(statusFlag)
			if perr != nil {
				return perr
			}
			tasks, err = app.service.GetByStatus(cmd.Context(), status)
		} else {
			tasks, err = app.service.GetAll(cmd.Context())
		}
		if err != nil {
			return err
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return nil
		}

		now := time.Now()
		for _, t := range tasks {
			marker := " "
			if t.Overdue(now) {
				marker = ui.RenderFail("!")
			}
			line := fmt.Sprintf("%s %-32s %-12s %-7s %s",
				marker, t.ID, ui.RenderStatus(t.Status), ui.RenderPriority(t.Priority), t.Title)
			fmt.Println(ui.Truncate(line, ui.Width()))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := app.service.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if t == nil {
			fmt.Printf("%s Task %s not found\n", ui.RenderWarn("⚠"), args[0])
			return nil
		}
		printTask(t)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a task's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		existing, err := app.service.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("task %s not found", args[0])
		}

		updated := *existing
		if cmd.Flags().Changed("title") {
			updated.Title, _ = cmd.Flags().GetString("title")
		}
		if cmd.Flags().Changed("desc") {
			updated.Description, _ = cmd.Flags().GetString("desc")
		}
		if cmd.Flags().Changed("due") {
			due, _ := cmd.Flags().GetString("due")
			deadline, err := parseDue(due)
			if err != nil {
				return err
			}
			updated.Deadline = deadline
		}
		if cmd.Flags().Changed("priority") {
			prio, _ := cmd.Flags().GetString("priority")
			priority, err := parsePriority(prio)
			if err != nil {
				return err
			}
			updated.Priority = priority
		}

		saved, err := app.service.Update(cmd.Context(), &updated)
		if err != nil {
			return err
		}

		fmt.Printf("%s Updated %s\n", ui.RenderPass("✓"), saved.ID)
		printTask(saved)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <id> <todo|in_progress|done>",
	Short: "Change a task's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := parseStatus(args[1])
		if err != nil {
			return err
		}

		updated, err := app.service.SetStatus(cmd.Context(), args[0], status)
		if err != nil {
			return err
		}
		if updated == nil {
			fmt.Printf("%s Task %s not found, nothing changed\n", ui.RenderWarn("⚠"), args[0])
			return nil
		}

		fmt.Printf("%s %s is now %s\n", ui.RenderPass("✓"), updated.ID, ui.RenderStatus(updated.Status))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.service.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Deleted %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

func init() {
	addCmd.Flags().String("desc", "", "task description")
	addCmd.Flags().String("due", "", "deadline (RFC 3339 or natural language)")
	addCmd.Flags().String("priority", "", "low, medium or high (default medium)")
	addCmd.Flags().BoolP("interactive", "i", false, "collect fields in a form")

	listCmd.Flags().String("status", "", "filter by status")

	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().String("desc", "", "new description (empty clears it)")
	editCmd.Flags().String("due", "", "new deadline (empty clears it)")
	editCmd.Flags().String("priority", "", "new priority")
}

func printTask(t *types.Task) {
	fmt.Printf("  %s %s\n", ui.RenderDim("title:"), t.Title)
	if t.Description != "" {
		fmt.Printf("  %s %s\n", ui.RenderDim("desc:"), t.Description)
	}
	fmt.Printf("  %s %s   %s %s\n",
		ui.RenderDim("status:"), ui.RenderStatus(t.Status),
		ui.RenderDim("priority:"), ui.RenderPriority(t.Priority))
	if t.Deadline != nil {
		due := t.Deadline.Local().Format("2006-01-02 15:04")
		if t.Overdue(time.Now()) {
			due += " " + ui.RenderFail("(overdue)")
		}
		fmt.Printf("  %s %s\n", ui.RenderDim("due:"), due)
	}
	fmt.Printf("  %s %s   %s %s\n",
		ui.RenderDim("created:"), t.CreatedAt.Local().Format("2006-01-02 15:04"),
		ui.RenderDim("updated:"), t.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

// parseDue accepts an RFC 3339 timestamp or a natural-language expression.
// Empty input means no deadline.
func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(s, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to parse deadline %q: %w", s, err)
	}
	if result == nil {
		return nil, fmt.Errorf("could not understand deadline %q", s)
	}
	t := result.Time
	return &t, nil
}

func parsePriority(s string) (types.Priority, error) {
	if s == "" {
		return "", nil // service defaults to medium
	}
	p := types.Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q (want low, medium or high)", s)
	}
	return p, nil
}

func parseStatus(s string) (types.Status, error) {
	st := types.Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q (want todo, in_progress or done)", s)
	}
	return st, nil
}

// promptCreateInput collects the task fields interactively.
func promptCreateInput() (*task.CreateInput, error) {
	var title, desc, due string
	priority := string(types.PriorityMedium)

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Title").Value(&title),
		huh.NewText().Title("Description").Value(&desc),
		huh.NewInput().Title("Deadline").Description("RFC 3339 or e.g. \"friday 17:00\"").Value(&due),
		huh.NewSelect[string]().Title("Priority").
			Options(
				huh.NewOption("Low", string(types.PriorityLow)),
				huh.NewOption("Medium", string(types.PriorityMedium)),
				huh.NewOption("High", string(types.PriorityHigh)),
			).
			Value(&priority),
	))
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("form aborted: %w", err)
	}

	deadline, err := parseDue(due)
	if err != nil {
		return nil, err
	}

	return &task.CreateInput{
		Title:       title,
		Description: desc,
		Deadline:    deadline,
		Priority:    types.Priority(priority),
	}, nil
}
