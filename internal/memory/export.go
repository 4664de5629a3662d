package memory

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/task"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ExportFormat selects the on-disk representation of an exported plan.
type ExportFormat string

const (
	FormatMarkdown ExportFormat = "markdown"
	FormatYAML     ExportFormat = "yaml"
	FormatJSON     ExportFormat = "json"
)

// ParseExportFormat accepts a format name or a file extension.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use markdown, yaml or json)", s)
	}
}

// Extension returns the default file extension for f.
func (f ExportFormat) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatJSON:
		return ".json"
	default:
		return ".md"
	}
}

// Exporter writes plans to a filesystem.
type Exporter struct {
	fs afero.Fs
}

// NewExporter returns an exporter over fs. A nil fs means the OS filesystem.
func NewExporter(fs afero.Fs) *Exporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Exporter{fs: fs}
}

// Export renders plan in format and writes it to path, creating parent
// directories as needed.
func (e *Exporter) Export(plan planner.WeeklyPlan, format ExportFormat, path string) error {
	data, err := Render(plan, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := e.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := afero.WriteFile(e.fs, path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Render returns the plan encoded in format.
func Render(plan planner.WeeklyPlan, format ExportFormat) ([]byte, error) {
	plan.Fill()
	switch format {
	case FormatJSON:
		return renderJSON(plan)
	case FormatYAML:
		return renderYAML(plan)
	case FormatMarkdown, "":
		return []byte(renderMarkdown(plan)), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func renderJSON(plan planner.WeeklyPlan) ([]byte, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	return append(data, '\n'), nil
}

// renderYAML keeps days in weekday order; a plain map would sort them
// alphabetically.
func renderYAML(plan planner.WeeklyPlan) ([]byte, error) {
	days := &yaml.Node{Kind: yaml.MappingNode}
	for _, d := range planner.Weekdays {
		var items yaml.Node
		if err := items.Encode(plan.Days[d]); err != nil {
			return nil, fmt.Errorf("encode %s: %w", d, err)
		}
		days.Content = append(days.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(d)},
			&items,
		)
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	doc.Content = append(doc.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "id"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: plan.ID},
		&yaml.Node{Kind: yaml.ScalarNode, Value: "createdAt"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: plan.CreatedAt.Format("2006-01-02T15:04:05Z07:00")},
		&yaml.Node{Kind: yaml.ScalarNode, Value: "days"},
		days,
	)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	return out, nil
}

func renderMarkdown(plan planner.WeeklyPlan) string {
	var sb strings.Builder
	sb.WriteString("# Weekly Plan\n\n")
	if plan.ID != "" {
		fmt.Fprintf(&sb, "Plan `%s`", plan.ID)
		if !plan.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, " created %s", plan.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		sb.WriteString("\n\n")
	}

	for _, d := range planner.Weekdays {
		items := plan.Days[d]
		fmt.Fprintf(&sb, "## %s (%s)\n\n", d, task.FormatHours(plan.DayMinutes(d)))
		if len(items) == 0 {
			sb.WriteString("_No tasks scheduled_\n\n")
			continue
		}
		for _, it := range items {
			fmt.Fprintf(&sb, "- [ ] %s (%s, %s, #%d)\n", it.Title, it.Priority, task.FormatDuration(it.EstimatedMinutes), it.ID)
		}
		sb.WriteString("\n")
	}

	total := 0
	for _, d := range planner.Weekdays {
		total += plan.DayMinutes(d)
	}
	fmt.Fprintf(&sb, "**Total:** %d tasks, %s\n", plan.TaskCount(), task.FormatDuration(total))
	return sb.String()
}
