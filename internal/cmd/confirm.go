package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirm prompts with "[y/N]" and reads one line. Only an exact "y" or "Y"
// approves; empty input, "n", and anything else (including typos) cancel
// silently rather than re-prompting.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	return strings.EqualFold(scanner.Text(), "y")
}

// confirmAction is the confirmation gate for package mutations. The force
// flag approves without prompting.
func confirmAction(in io.Reader, out io.Writer, action string, packages []string, force bool) bool {
	if !force {
		prompt := fmt.Sprintf("Are you sure you want to %s the following packages: %s?", action, strings.Join(packages, ", "))
		if !confirm(in, out, prompt) {
			fmt.Fprintln(out, "Operation cancelled by user.")
			return false
		}
	}

	fmt.Fprintf(out, "%s operation approved.\n", capitalize(action))
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
