// Package terminal renders menus for the command line and reads revision commands.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"menumaker/internal/planner"
	"menumaker/internal/shopping"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Prompt asks for the next revision command.
const Prompt = `Select a meal number to change it or write "save" to accept the menu: `

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	revised     = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#FF6B6B"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// RenderMenu draws the menu as a table of (#, day, meal, recipe, date). The row of
// highlight, if any, is drawn in a different colour.
func RenderMenu(entries []planner.Entry, highlight int) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Index),
			e.Weekday.String(),
			string(e.Meal),
			e.Recipe.Name,
			e.ScheduledAt.Format(time.DateTime),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("#", "day", "meal", "recipe", "date").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == highlight:
				return revised
			default:
				return cellStyle
			}
		})
	return t.Render()
}

// RenderFinal lists the accepted menu with each recipe's ingredients and notes.
func RenderFinal(entries []planner.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s  %s\n", e.ScheduledAt.Format("Mon 2006-01-02 15:04"), titleStyle.Render(string(e.Meal)), e.Recipe.Name)
		if len(e.Recipe.Ingredients) > 0 {
			fmt.Fprintf(&b, "    %s\n", strings.Join(e.Recipe.Ingredients, ", "))
		}
		if e.Recipe.Notes != "" {
			fmt.Fprintf(&b, "    %s\n", e.Recipe.Notes)
		}
	}
	return b.String()
}

// RenderShoppingList draws the list one category per block.
func RenderShoppingList(list *shopping.ShoppingList) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Shopping list"))
	b.WriteString("\n")
	for _, s := range list.Sections {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render(s.Category))
		b.WriteString("\n")
		for _, item := range s.Items {
			b.WriteString("  - ")
			b.WriteString(item)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Prompter reads one command per line.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter creates a Prompter reading from in and prompting on out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Show writes text followed by a newline.
func (p *Prompter) Show(text string) {
	fmt.Fprintln(p.out, text)
}

// ReadCommand prompts and returns the next line without its line ending. It returns
// io.EOF once input is exhausted.
func (p *Prompter) ReadCommand() (string, error) {
	return p.Ask(Prompt)
}

// Ask prints question and reads one line.
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimRight(p.in.Text(), "\r"), nil
}

// IsEOF reports whether err means the input was closed.
func IsEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
