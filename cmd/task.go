/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/josephgoksu/weekplan/internal/task"
	"github.com/josephgoksu/weekplan/internal/telemetry"
	"github.com/josephgoksu/weekplan/internal/ui"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"tasks"},
	Short:   "Manage the task backlog",
	Long: `Add, list, update and delete backlog tasks.

Tasks carry a priority (low, medium, high), an estimate in minutes and an
optional deadline. The backlog is always listed in the same order the
planner sees it: deadlines first, then priority, then newest.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task to the backlog",
	Long: `Add a task to the backlog.

Deadlines accept "2006-01-02", "2006-01-02 15:04" or RFC 3339. Dates
without a zone use local time.

Examples:
  weekplan task add "Write quarterly report" -p high -m 120 --deadline "2025-03-14 17:00"
  weekplan task add "Call the bank"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks in planning order",
	Args:    cobra.NoArgs,
	RunE:    runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a task",
	Long: `Update fields of a task. Only the flags you pass are changed.

A blank --title and a non-positive --minutes are ignored. An empty
--description or --deadline clears the field.

Examples:
  weekplan task update 3 --priority high
  weekplan task update 3 --deadline ""`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskUpdate,
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskDelete,
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskUpdateCmd, taskDeleteCmd)

	for _, c := range []*cobra.Command{taskAddCmd, taskUpdateCmd} {
		c.Flags().StringP("description", "d", "", "longer description")
		c.Flags().StringP("priority", "p", "", "low, medium or high (default medium)")
		c.Flags().IntP("minutes", "m", 0, "estimated minutes (default 30)")
		c.Flags().String("deadline", "", "deadline, e.g. 2025-03-14 or \"2025-03-14 17:00\"")
	}
	taskUpdateCmd.Flags().StringP("title", "t", "", "new title")
	taskDeleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")
	priority, _ := cmd.Flags().GetString("priority")
	minutes, _ := cmd.Flags().GetInt("minutes")
	deadline, _ := cmd.Flags().GetString("deadline")

	t, err := task.NewTaskInput{
		Title:            strings.Join(args, " "),
		Description:      description,
		Priority:         priority,
		EstimatedMinutes: minutes,
		Deadline:         deadline,
	}.Normalize()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	created, err := store.CreateTask(cmd.Context(), t)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	tracker := newTracker()
	defer func() { _ = tracker.Close() }()
	tracker.Track(telemetry.EventTaskAdded, map[string]any{
		"priority":     string(created.Priority),
		"has_deadline": created.HasDeadline(),
	})

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), created)
	}
	if isQuiet() {
		cmd.Println(created.ID)
		return nil
	}
	cmd.Printf("Added task #%d: %s (%s, %s)\n", created.ID, created.Title, created.Priority, task.FormatDuration(created.EstimatedMinutes))
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tasks, err := store.ListTasks(cmd.Context())
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	ranked := task.Rank(tasks)

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), ranked)
	}
	cmd.Print(ui.RenderTasks(ranked, time.Now(), ui.TerminalWidth()))
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	t, err := store.GetTask(cmd.Context(), id)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), t)
	}
	cmd.Println(ui.RenderTask(t, time.Now()))
	return nil
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	var patch task.Patch
	flags := cmd.Flags()
	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		patch.Title = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		patch.Description = &v
	}
	if flags.Changed("priority") {
		v, _ := flags.GetString("priority")
		patch.Priority = &v
	}
	if flags.Changed("minutes") {
		v, _ := flags.GetInt("minutes")
		patch.EstimatedMinutes = &v
	}
	if flags.Changed("deadline") {
		v, _ := flags.GetString("deadline")
		patch.Deadline = &v
	}
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to update: pass at least one of --title, --description, --priority, --minutes, --deadline")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	updated, err := store.UpdateTask(cmd.Context(), id, patch)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), updated)
	}
	if !isQuiet() {
		cmd.Printf("Updated task #%d.\n", updated.ID)
	}
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	t, err := store.GetTask(cmd.Context(), id)
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirmOrAbort(cmd, fmt.Sprintf("Delete task #%d %q? [y/N]: ", t.ID, t.Title)) {
		return nil
	}

	if err := store.DeleteTask(cmd.Context(), id); err != nil {
		return err
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": id})
	}
	if !isQuiet() {
		cmd.Printf("Deleted task #%d.\n", id)
	}
	return nil
}
