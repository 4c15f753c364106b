// Package console runs the interactive card menu over plain line input.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/openclaw/qrcards/card"
)

// CardGenerator is the part of card.Generator the menu drives.
type CardGenerator interface {
	Generate(studentID, assignmentID string) (*card.Result, error)
	Batch(students []card.Student) ([]*card.Result, error)
}

const menuText = `--- Classroom Assignment QR Generator ---
1. Generate a card for a specific assignment
2. Generate a reusable identity card (student ID only)
3. Generate identity cards for the demo students
`

// Run shows the menu once, reads the choice and dispatches it. Input
// problems are reported on out and end the run without an error; only
// generator failures are returned.
func Run(in io.Reader, out io.Writer, gen CardGenerator, students []card.Student) error {
	sc := bufio.NewScanner(in)
	prompt := func(label string) string {
		fmt.Fprint(out, label)
		if !sc.Scan() {
			return ""
		}
		return strings.TrimSpace(sc.Text())
	}

	fmt.Fprint(out, menuText)
	choice := prompt("Select mode (1/2/3): ")

	switch choice {
	case "1":
		studentID := prompt("Enter Student ID (e.g. S123456): ")
		assignmentID := prompt("Enter Assignment ID (e.g. HW01): ")
		if studentID == "" || assignmentID == "" {
			fmt.Fprintln(out, "Error: Both IDs are required.")
			return nil
		}
		_, err := gen.Generate(studentID, assignmentID)
		return err
	case "2":
		studentID := prompt("Enter Student ID (e.g. S123456): ")
		if studentID == "" {
			fmt.Fprintln(out, "Error: Student ID is required.")
			return nil
		}
		_, err := gen.Generate(studentID, "")
		return err
	case "3":
		fmt.Fprintf(out, "Generating identity cards for %d students...\n", len(students))
		results, err := gen.Batch(students)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Done: %d cards written.\n", len(results))
		return nil
	default:
		fmt.Fprintln(out, "Invalid choice.")
		return nil
	}
}
