package cli

import (
	"fmt"
	"sort"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/taskkit/internal/models"
	"github.com/spf13/cobra"
)

const pollInterval = 500 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the task record
type tickMsg time.Time

// taskUpdateMsg carries the freshly loaded task record
type taskUpdateMsg struct {
	task *models.Task
}

// watchModel is the bubbletea model for task progress.
type watchModel struct {
	taskID string
	task   *models.Task

	// cancel requests cooperative cancellation; nil in observe-only mode,
	// where Ctrl+C just stops watching.
	cancel     func() bool
	cancelling bool
	stopped    bool

	progress progress.Model
	theme    Theme
	done     bool
	err      error
}

// newWatchModel creates a new watch model.
func newWatchModel(task *models.Task, cancel func() bool) watchModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return watchModel{
		taskID:   task.ID,
		task:     task,
		cancel:   cancel,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel == nil {
				m.stopped = true
				return m, tea.Quit
			}
			if !m.cancelling {
				m.cancelling = true
				m.cancel()
			}
			// Keep polling until the record reaches a terminal state.
			return m, nil
		}

	case tickMsg:
		return m, m.fetchTask()

	case taskUpdateMsg:
		if msg.task == nil {
			m.err = fmt.Errorf("task %s disappeared from the store", m.taskID)
			m.done = true
			return m, tea.Quit
		}

		m.task = msg.task

		if m.task.Status.Terminal() {
			m.done = true
			if m.task.Status == models.StatusFailed {
				m.err = fmt.Errorf("%s", failureMessage(m.task))
			}
			return m, tea.Quit
		}
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m watchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m watchModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if m.task == nil {
		return "Loading task status...\n"
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.task.Status))
	progressBar := m.progress.ViewAs(m.task.Progress / 100)
	percent := fmt.Sprintf("%.0f%%", m.task.Progress)

	var hint string
	switch {
	case m.cancelling:
		hint = m.theme.hintStyle().Render("Cancelling, waiting for the operation to stop...")
	case m.cancel != nil:
		hint = m.theme.hintStyle().Render("Press Ctrl+C to cancel the task")
	default:
		hint = m.theme.hintStyle().Render("Press Ctrl+C to stop watching")
	}

	line := fmt.Sprintf("%s %s %s", status, progressBar, percent)
	if m.task.Message != "" {
		line += "  " + m.task.Message
	}
	return fmt.Sprintf("%s\n%s\n", line, hint)
}

// finalView renders the completion message.
func (m watchModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Task failed: %s\n", m.err))
	}

	if m.task != nil {
		switch m.task.Status {
		case models.StatusCancelled:
			return m.theme.errorStyle().Render("\n✕ Cancelled\n")
		case models.StatusCompleted:
			output := m.theme.completedStyle().Render("✓ Completed") + "\n"
			if len(m.task.Result) > 0 {
				output += "\n"
				keys := make([]string, 0, len(m.task.Result))
				for k := range m.task.Result {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					output += fmt.Sprintf("  %s: %v\n", k, m.task.Result[k])
				}
			}
			return output
		}
	}

	return m.theme.completedStyle().Render("✓ Completed\n")
}

// fetchTask loads the current task record. Runs as a command to keep
// Update() non-blocking.
func (m watchModel) fetchTask() tea.Cmd {
	return func() tea.Msg {
		return taskUpdateMsg{task: trk.Get(m.taskID)}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runWatchUI runs the interactive progress UI for a task. cancel may be
// nil for observe-only watching. Returns an error if the task failed.
func runWatchUI(taskID string, cancel func() bool) error {
	task := trk.Get(taskID)
	if task == nil {
		return fmt.Errorf("task not found: %s", taskID)
	}

	p := tea.NewProgram(newWatchModel(task, cancel))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(watchModel); ok {
		if m.stopped {
			fmt.Printf("\nTask %s continues. Use 'taskkit tasks %s' to check status.\n", taskID, taskID)
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}

// failureMessage extracts the most useful error text from a failed task.
func failureMessage(task *models.Task) string {
	if task.Result != nil {
		if e, ok := task.Result["error"].(string); ok && e != "" {
			return e
		}
	}
	if task.Message != "" {
		return task.Message
	}
	return "task failed with unknown error"
}

var watchCmd = &cobra.Command{
	Use:   "watch <task-id>",
	Short: "Watch a task's progress",
	Long: `Watch a task's progress with a live progress bar.

Watching is read-only: it polls the task store and renders the latest
progress and message. Use 'taskkit cancel' to cancel the task.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatchUI(args[0], nil)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
