package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"

	"admission/internal/admission/allocation"
	"admission/internal/admission/models"
	"admission/internal/admission/service"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Presenter renders tables and messages. Colors are emitted only when enabled.
type Presenter struct {
	w     io.Writer
	color bool
}

func NewPresenter(w io.Writer, color bool) *Presenter {
	return &Presenter{w: w, color: color}
}

func (p *Presenter) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + colorReset
}

func (p *Presenter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func (p *Presenter) Success(format string, args ...any) {
	p.printf("%s\n", p.paint(colorGreen, fmt.Sprintf(format, args...)))
}

func (p *Presenter) Error(format string, args ...any) {
	p.printf("%s\n", p.paint(colorRed, fmt.Sprintf(format, args...)))
}

func (p *Presenter) Notice(format string, args ...any) {
	p.printf("%s\n", p.paint(colorYellow, fmt.Sprintf(format, args...)))
}

// Heading prints a blue title underlined with '='.
func (p *Presenter) Heading(title string) {
	p.printf("\n%s\n%s\n", p.paint(colorBlue, title), strings.Repeat("=", len(title)))
}

// Prompt writes a prompt without a trailing newline.
func (p *Presenter) Prompt(label string) {
	p.printf("%s", label)
}

func (p *Presenter) Banner() {
	border := p.paint(colorYellow, "************************************")
	p.printf("\n%s\n", border)
	p.printf("%s\n", p.paint(colorGreen, "         ADMISSION SYSTEM"))
	p.printf("%s\n", p.paint(colorGreen, "   Seat Allocation Automation"))
	p.printf("%s\n", border)
}

func (p *Presenter) Menu() {
	p.Heading("Available Options:")
	p.printf("1. Add New Student Registration\n")
	p.printf("2. View All Registered Students\n")
	p.printf("3. View All Available Colleges\n")
	p.printf("4. Process Seat Allotment\n")
	p.printf("5. Update Student Preferences\n")
	p.printf("6. View System Status\n")
	p.printf("7. Exit\n\n")
	p.Prompt("Please enter your choice (1-7): ")
}

// SeatDistribution prints the configured capacity per college.
func (p *Presenter) SeatDistribution(colleges []service.CollegeSeats) {
	p.printf("\n%s\n", p.paint(colorBlue, "Initial Seat Distribution:"))
	for _, c := range colleges {
		p.printf("%s: CSE=%d, ECE=%d\n", c.Name, c.Capacity[models.BranchCSE], c.Capacity[models.BranchECE])
	}
}

// Students prints the roster in rank order with the current allocation.
func (p *Presenter) Students(students []*models.Student) {
	p.Heading("Student List")
	if len(students) == 0 {
		p.printf("No students registered.\n")
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Reg No\tName\tRank\tCollege\tBranch")
	_, _ = fmt.Fprintln(tw, "------\t----\t----\t-------\t------")
	for _, s := range students {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			s.RegNumber, s.Name, s.Rank, s.Allocation.CollegeLabel(), s.Allocation.BranchLabel())
	}
	_ = tw.Flush()
}

// Colleges prints every (college, branch) option with its choice number and
// remaining seats.
func (p *Presenter) Colleges(catalog *models.Catalog, colleges []service.CollegeSeats) {
	p.Heading("College Information")
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "No.\tCollege\tBranch\tSeats")
	for i, c := range colleges {
		for _, b := range models.Branches {
			choice := catalog.ChoiceFor(models.Preference{College: i, Branch: b})
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", choice, c.Name, b, c.Remaining[b])
		}
	}
	_ = tw.Flush()
}

// Preferences prints a numbered preference list.
func (p *Presenter) Preferences(catalog *models.Catalog, prefs []models.Preference) {
	if len(prefs) == 0 {
		p.printf("No preferences recorded.\n")
		return
	}
	for i, pr := range prefs {
		name := "?"
		if c := catalog.At(pr.College); c != nil {
			name = c.Name
		}
		p.printf("%d. %s - %s\n", i+1, name, pr.Branch)
	}
}

// AllocationSummary prints outcome counts for one pass.
func (p *Presenter) AllocationSummary(res allocation.Result) {
	p.printf("Allocated: %d, Not allocated: %d, Not eligible: %d\n",
		res.Allocated, res.NotAllocated, res.NotEligible)
	p.Success("Allocation complete! View all students to see results.")
}

// Status prints college popularity and the most recent operations.
func (p *Presenter) Status(status service.Status) {
	p.Heading("System Status")
	p.printf("Students: %d, preference transitions: %d\n\n", status.Students, status.Transitions)
	p.printf("College Preferences:\n-------------------\n")
	for _, c := range status.Colleges {
		p.printf("%s: %d preferences\n", c.Name, c.PreferenceCount)
	}
	if len(status.Routes) > 0 {
		p.printf("\nPreference Transitions:\n----------------------\n")
		for _, r := range status.Routes {
			p.printf("%s -> %s: %d\n", r.From, r.To, r.Count)
		}
	}
	p.printf("\nRecent Operations:\n------------------\n")
	for _, e := range status.RecentOperations {
		p.printf("- %s\n", e.Message)
	}
}
