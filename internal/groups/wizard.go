package groups

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"menumaker/internal/recipe"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const suggestTimeout = 10 * time.Second

// choice is one entry of the category list.
type choice struct {
	category recipe.Category
	rewrite  bool
}

func (c choice) Title() string {
	if c.rewrite {
		return "REWRITE INGREDIENT"
	}
	return string(c.category)
}

func (c choice) Description() string {
	if c.rewrite {
		return "Rename it in every recipe"
	}
	return "Food group"
}

func (c choice) FilterValue() string { return c.Title() }

type suggestionMsg struct {
	ingredient string
	category   recipe.Category
	err        error
}

// Wizard is the terminal UI of a grouping session.
type Wizard struct {
	c         *Consolidator
	suggest   SuggestFunc
	list      list.Model
	input     textinput.Model
	current   string
	rewriting bool
	suggested recipe.Category
	status    string
	done      bool
}

// NewWizard creates the UI for c. suggest may be nil.
func NewWizard(c *Consolidator, suggest SuggestFunc) *Wizard {
	items := []list.Item{choice{rewrite: true}}
	for _, cat := range c.Categories() {
		items = append(items, choice{category: cat})
	}
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)
	l := list.New(items, delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetSize(60, 20)

	in := textinput.New()
	in.Placeholder = "new ingredient name"
	in.CharLimit = 120

	return &Wizard{c: c, suggest: suggest, list: l, input: in}
}

// Init moves to the first ingredient.
func (w *Wizard) Init() tea.Cmd {
	return w.next()
}

// Done reports whether every ingredient got a category.
func (w *Wizard) Done() bool {
	return w.done
}

func (w *Wizard) next() tea.Cmd {
	ing, ok := w.c.Current()
	if !ok {
		w.done = true
		return tea.Quit
	}
	w.current = ing
	w.suggested = ""
	w.list.Title = fmt.Sprintf("Select food group for %q", ing)
	w.list.Select(0)
	if w.suggest == nil {
		return nil
	}
	suggest, cats := w.suggest, w.c.Categories()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
		defer cancel()
		cat, err := suggest(ctx, ing, cats)
		return suggestionMsg{ingredient: ing, category: cat, err: err}
	}
}

// Update handles messages for the wizard.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.list.SetSize(msg.Width-2, max(msg.Height-6, 6))
		return w, nil

	case suggestionMsg:
		if msg.ingredient != w.current || msg.err != nil {
			return w, nil
		}
		for i, item := range w.list.Items() {
			if c := item.(choice); !c.rewrite && c.category == msg.category {
				w.list.Select(i)
				w.suggested = msg.category
				break
			}
		}
		return w, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return w, tea.Quit
		}
		if w.rewriting {
			return w.updateRewrite(msg)
		}
		if msg.String() == "enter" {
			return w.choose()
		}
	}

	if w.rewriting {
		var cmd tea.Cmd
		w.input, cmd = w.input.Update(msg)
		return w, cmd
	}
	var cmd tea.Cmd
	w.list, cmd = w.list.Update(msg)
	return w, cmd
}

func (w *Wizard) choose() (tea.Model, tea.Cmd) {
	c, ok := w.list.SelectedItem().(choice)
	if !ok {
		return w, nil
	}
	if c.rewrite {
		w.rewriting = true
		w.input.SetValue(w.current)
		return w, w.input.Focus()
	}
	if err := w.c.Assign(w.current, c.category); err != nil {
		w.status = err.Error()
		return w, nil
	}
	w.status = fmt.Sprintf("%s → %s", w.current, c.category)
	return w, w.next()
}

func (w *Wizard) updateRewrite(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		w.rewriting = false
		w.input.Blur()
		return w, nil
	case "enter":
		name := strings.TrimSpace(w.input.Value())
		if err := w.c.Rewrite(w.current, name); err != nil {
			w.status = err.Error()
			return w, nil
		}
		w.status = fmt.Sprintf("%s renamed to %s", w.current, name)
		w.rewriting = false
		w.input.Blur()
		w.input.Reset()
		return w, w.next()
	}
	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	return w, cmd
}

// View renders the wizard.
func (w *Wizard) View() string {
	if w.done {
		return "All ingredients have a food group.\n"
	}
	progressStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77")).MarginTop(1)

	done, total := w.c.Progress()
	header := progressStyle.Render(fmt.Sprintf("[%d/%d]", done, total))

	var body string
	if w.rewriting {
		body = fmt.Sprintf("Write new name for %q:\n\n%s", w.current, w.input.View())
	} else {
		body = w.list.View()
		if w.suggested != "" {
			body += "\n" + progressStyle.Render(fmt.Sprintf("suggested: %s", w.suggested))
		}
	}
	return fmt.Sprintf("%s\n\n%s\n%s", header, body, statusStyle.Render(w.status))
}

// Run starts the wizard on the given terminal streams and blocks until the user
// finishes or quits.
func Run(ctx context.Context, c *Consolidator, suggest SuggestFunc, in io.Reader, out io.Writer) (bool, error) {
	w := NewWizard(c, suggest)
	final, err := tea.NewProgram(w, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return false, fmt.Errorf("failed to run grouping wizard: %w", err)
	}
	return final.(*Wizard).Done(), nil
}
