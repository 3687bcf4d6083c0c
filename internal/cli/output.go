package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/session"
)

// styles holds the lipgloss styles for terminal output.
type styles struct {
	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
	Done    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		Error:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("241")),
		Done:    r.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241")),
	}
}

// Notifier prints notices as styled lines. Colour is dropped when W is not
// a terminal.
type Notifier struct {
	W      io.Writer
	styles styles
}

// NewNotifier creates a Notifier writing to w.
func NewNotifier(w io.Writer) Notifier {
	return Notifier{W: w, styles: newStyles(lipgloss.NewRenderer(w))}
}

// Error prints message as an error notice.
func (n Notifier) Error(_ context.Context, message string) {
	fmt.Fprintln(n.W, n.styles.Error.Render("✗ "+message))
}

// Success prints message as a success notice.
func (n Notifier) Success(_ context.Context, message string) {
	fmt.Fprintln(n.W, n.styles.Success.Render("✓ "+message))
}

// Router turns a navigation into a hint. The terminal has one view, so only
// the sign-in page has a meaning here.
type Router struct {
	W io.Writer
}

// Redirect prints how to sign in when sent to the sign-in page.
func (r Router) Redirect(_ context.Context, path string, _ session.RedirectOptions) {
	if path == domain.SignInPath {
		fmt.Fprintln(r.W, "Run 'todoctl auth signin --email <email> --password <password>' to sign in.")
	}
}

var (
	_ session.Notifier = Notifier{}
	_ session.Router   = Router{}
)

// renderTodos formats todos as a table.
func renderTodos(w io.Writer, todos []domain.Todo) {
	st := newStyles(lipgloss.NewRenderer(w))
	if len(todos) == 0 {
		fmt.Fprintln(w, st.Muted.Render("No todos yet."))
		return
	}

	rows := make([][]string, 0, len(todos))
	for _, t := range todos {
		mark, title := "[ ]", t.Title
		if t.IsCompleted {
			mark, title = "[x]", st.Done.Render(t.Title)
		}
		rows = append(rows, []string{mark, t.ID, title, t.Description})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "ID", "TITLE", "DESCRIPTION").
		Rows(rows...)
	fmt.Fprintln(w, tbl.Render())
}

func renderTodo(w io.Writer, t domain.Todo) {
	status := "open"
	if t.IsCompleted {
		status = "completed"
	}
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	fmt.Fprintf(w, "Description: %s\n", t.Description)
	fmt.Fprintf(w, "Status:      %s\n", status)
}
