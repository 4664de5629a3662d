/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/josephgoksu/weekplan/internal/config"
	"github.com/josephgoksu/weekplan/internal/llm"
	"github.com/josephgoksu/weekplan/internal/logger"
	"github.com/josephgoksu/weekplan/internal/memory"
	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/task"
	"github.com/josephgoksu/weekplan/internal/telemetry"
	"github.com/josephgoksu/weekplan/internal/ui"
	"github.com/josephgoksu/weekplan/internal/util"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate and review weekly plans",
	Long: `Generate a seven-day plan from the backlog and review stored plans.

Every generated plan is validated before it is stored: unknown tasks are
dropped, forgotten tasks are added to the lightest day, and overdue or
urgent tasks are pulled into the first two days. Plans are never
overwritten; each run adds a new one.`,
}

var planGenerateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen", "new"},
	Short:   "Generate a plan for the next seven days",
	Long: `Generate a plan for the next seven days and store it.

Examples:
  weekplan plan generate
  weekplan plan generate --dry-run    # show the plan without storing it
  weekplan plan generate --json`,
	Args: cobra.NoArgs,
	RunE: runPlanGenerate,
}

var planShowCmd = &cobra.Command{
	Use:   "show [id|latest]",
	Short: "Show a stored plan (default: latest)",
	Long: `Show a stored plan. The argument may be a full plan id, a unique
prefix of one (the "plan-" part is optional), or "latest".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlanShow,
}

var planListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored plans, newest first",
	Args:    cobra.NoArgs,
	RunE:    runPlanList,
}

var planExportCmd = &cobra.Command{
	Use:   "export [id|latest]",
	Short: "Export a plan as Markdown, YAML or JSON",
	Long: `Export a stored plan to a file.

Examples:
  weekplan plan export                         # latest plan as weekplan-<id>.md
  weekplan plan export latest --format yaml -o week.yaml
  weekplan plan export plan-1a2b --format json -o -   # write to stdout`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlanExport,
}

var planPromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the prompt the next generation would send",
	Long: `Print the prompt the next plan generation would send to the model,
with an estimate of its token count and cost. Nothing is sent.`,
	Args: cobra.NoArgs,
	RunE: runPlanPrompt,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planGenerateCmd, planShowCmd, planListCmd, planExportCmd, planPromptCmd)

	planGenerateCmd.Flags().Bool("dry-run", false, "validate and show the plan without storing it")
	planListCmd.Flags().IntP("limit", "n", memory.DefaultPlanListLimit, "maximum number of plans to list")
	planExportCmd.Flags().StringP("format", "f", string(memory.FormatMarkdown), "md, yaml or json")
	planExportCmd.Flags().StringP("output", "o", "", "output file, \"-\" for stdout (default weekplan-<id>.<ext>)")
}

// newOracle builds the LLM-backed oracle and returns a function releasing
// the provider client. Tests replace it.
var newOracle = func(ctx context.Context, cfg config.PlannerConfig) (planner.Oracle, func() error, error) {
	llmCfg, err := config.LoadLLMConfig()
	if err != nil {
		return nil, nil, err
	}
	if llm.RequiresAPIKey(llmCfg.Provider) && llmCfg.APIKey == "" {
		return nil, nil, fmt.Errorf("no API key for %s: set it with `weekplan config llm %s --api-key <key>` or the provider's environment variable",
			llmCfg.Provider, llmCfg.Provider)
	}
	chatModel, err := llm.NewCloseableChatModel(ctx, llmCfg)
	if err != nil {
		return nil, nil, err
	}
	return planner.NewLLMOracle(chatModel, cfg.Oracle()), chatModel.Close, nil
}

// promptRecordingOracle keeps the last prompt for crash reports.
type promptRecordingOracle struct {
	planner.Oracle
}

func (o promptRecordingOracle) Generate(ctx context.Context, req planner.PlanRequest) (planner.RawCandidate, error) {
	if prompt, err := req.Prompt(); err == nil {
		logger.SetLastPrompt(prompt)
	}
	return o.Oracle.Generate(ctx, req)
}

func runPlanGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	pcfg := config.LoadPlannerConfig()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// An empty backlog needs no model, so report it before touching credentials.
	tasks, err := store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return planner.ErrEmptyBacklog
	}

	var plans planner.PlanStore = store
	if dryRun {
		plans = memory.NewMemoryPlanStore()
	}

	oracle, closeOracle, err := newOracle(ctx, pcfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeOracle() }()

	tracker := newTracker()
	defer func() { _ = tracker.Close() }()

	svc, err := planner.NewService(store, promptRecordingOracle{oracle}, plans, pcfg.Service(), planner.WithTracker(tracker))
	if err != nil {
		return err
	}

	if !isJSON() && !isQuiet() {
		cmd.Printf("Planning %d tasks...\n", min(len(tasks), pcfg.MaxTasks))
	}
	start := time.Now()
	res, err := svc.GenerateWeeklyPlan(ctx)
	if err != nil {
		tracker.Track(telemetry.EventPlanFailed, telemetry.FailureProperties(errorType(err), time.Since(start)))
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), res)
	}
	if isQuiet() {
		cmd.Println(res.Plan.ID)
		return nil
	}

	if report := ui.RenderReport(res); report != "" {
		cmd.Println(report)
	}
	cmd.Print(ui.RenderPlan(res.Plan, pcfg.DailyCapMinutes, urgencyByID(tasks, time.Now())))
	if warn := ui.RenderOverCap(res.OverCapDays(), pcfg.DailyCapMinutes); warn != "" {
		cmd.Println(warn)
	}
	if dryRun {
		cmd.Println(ui.StyleSubtle.Render("Dry run: plan not saved."))
	} else {
		cmd.Printf("%s Saved plan %s\n", ui.Icon("✓", ui.StyleSuccess), res.Plan.ID)
	}
	return nil
}

// resolvePlan loads the plan named by arg: empty or "latest" selects the
// newest plan, anything else is resolved as an id prefix.
func resolvePlan(ctx context.Context, store *memory.SQLiteStore, arg string) (planner.WeeklyPlan, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" || strings.EqualFold(arg, "latest") {
		plan, err := store.LatestPlan(ctx)
		if err != nil {
			return planner.WeeklyPlan{}, fmt.Errorf("no plans yet, run `weekplan plan generate`: %w", err)
		}
		return plan, nil
	}
	id, err := util.ResolvePlanID(ctx, store, arg)
	if err != nil {
		return planner.WeeklyPlan{}, err
	}
	return store.GetPlan(ctx, id)
}

func urgencyByID(tasks []task.Task, now time.Time) map[int64]task.Urgency {
	out := make(map[int64]task.Urgency, len(tasks))
	for _, t := range tasks {
		out[t.ID] = t.Urgency(now)
	}
	return out
}

func runPlanShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	plan, err := resolvePlan(ctx, store, arg)
	if err != nil {
		return err
	}

	pcfg := config.LoadPlannerConfig()
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), planner.Result{Plan: plan, Totals: plan.Totals(pcfg.DailyCapMinutes)})
	}

	tasks, err := store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	cmd.Print(ui.RenderPlan(plan, pcfg.DailyCapMinutes, urgencyByID(tasks, time.Now())))
	return nil
}

func runPlanList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	plans, err := store.ListPlans(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), plans)
	}
	cmd.Print(ui.RenderPlanList(plans))
	return nil
}

func runPlanExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatFlag, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	format, err := memory.ParseExportFormat(formatFlag)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	plan, err := resolvePlan(ctx, store, arg)
	if err != nil {
		return err
	}

	tracker := newTracker()
	defer func() { _ = tracker.Close() }()
	tracker.Track(telemetry.EventPlanExported, map[string]any{"format": string(format)})

	if output == "-" {
		data, err := memory.Render(plan, format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if output == "" {
		output = "weekplan-" + plan.ID + format.Extension()
	}
	if err := memory.NewExporter(nil).Export(plan, format, output); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]string{"planId": plan.ID, "path": output, "format": string(format)})
	}
	if !isQuiet() {
		cmd.Printf("Exported plan %s to %s\n", plan.ID, output)
	}
	return nil
}

// promptEstimate is the JSON shape of `plan prompt`.
type promptEstimate struct {
	Prompt           string  `json:"prompt"`
	Tasks            int     `json:"tasks"`
	Omitted          int     `json:"omitted,omitempty"`
	EarlyTasks       []int64 `json:"earlyTasks,omitempty"`
	TotalMinutes     int     `json:"totalMinutes"`
	Model            string  `json:"model"`
	InputTokens      int     `json:"inputTokens"`
	OutputTokens     int     `json:"outputTokens"`
	EstimatedCostUSD float64 `json:"estimatedCostUsd"`
}

// Rough answer size: each day key plus a few tokens per scheduled id.
const (
	outputTokensPerDay  = 4
	outputTokensPerTask = 3
)

func runPlanPrompt(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tasks, err := store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	pcfg := config.LoadPlannerConfig()
	req, err := planner.BuildRequest(task.Rank(tasks), time.Now(), pcfg.Service().Request)
	if err != nil {
		return err
	}
	prompt, err := req.Prompt()
	if err != nil {
		return fmt.Errorf("render prompt: %w", err)
	}

	llmCfg, err := config.LoadLLMConfig()
	if err != nil {
		return err
	}
	est := promptEstimate{
		Prompt:       prompt,
		Tasks:        len(req.Tasks),
		Omitted:      req.Omitted,
		EarlyTasks:   req.EarlyTaskIDs(),
		TotalMinutes: req.TotalMinutes(),
		Model:        llmCfg.Model,
		InputTokens:  llm.EstimateTokens(prompt),
		OutputTokens: len(planner.Weekdays)*outputTokensPerDay + len(req.Tasks)*outputTokensPerTask,
	}
	est.EstimatedCostUSD = llm.CalculateCost(llmCfg.Model, est.InputTokens, est.OutputTokens)

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), est)
	}
	if !isQuiet() {
		cmd.Println(prompt)
		cmd.Println()
	}
	summary := fmt.Sprintf("%d tasks (%s, %d due early), ~%d input tokens, ~%d output tokens for %s",
		est.Tasks, task.FormatDuration(est.TotalMinutes), len(est.EarlyTasks), est.InputTokens, est.OutputTokens, est.Model)
	if est.EstimatedCostUSD > 0 {
		summary += fmt.Sprintf(", about $%.4f", est.EstimatedCostUSD)
	}
	cmd.Println(ui.StyleSubtle.Render(summary))
	return nil
}
