package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/jorge-barreto/colossus/internal/stage"
	"github.com/jorge-barreto/colossus/internal/state"
)

// RenderStatus prints the mode, each planning document's state and the most
// recent fix instruction.
func RenderStatus(w io.Writer, modeName string, stages []stage.Status, feedback []state.Feedback) {
	modeStyle := greenStyle
	switch modeName {
	case "error":
		modeStyle = redStyle
	case "unknown":
		modeStyle = dimStyle
	}
	fmt.Fprintf(w, "%s    %s\n", boldStyle.Render("Mode:"), modeStyle.Bold(true).Render(modeName))

	fmt.Fprintf(w, "\n%s\n", boldStyle.Render("Documents:"))
	for _, st := range stages {
		var label string
		switch {
		case !st.Exists:
			label = dimStyle.Render("missing")
		case st.Stale:
			label = yellowStyle.Render("stale")
		default:
			label = greenStyle.Render("current")
		}
		when := ""
		if st.Exists {
			when = dimStyle.Render(st.ModTime.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(w, "  %-14s %-20s %s  %s\n", st.Name, st.Output, label, when)
	}

	if len(feedback) > 0 {
		fb := feedback[0]
		fmt.Fprintf(w, "\n%s %s %s\n", boldStyle.Render("Last fix request:"), fb.Name,
			dimStyle.Render("("+fb.ModTime.Format("15:04:05")+")"))
		for _, line := range firstLines(fb.Content, 6) {
			fmt.Fprintf(w, "  %s\n", dimStyle.Render(line))
		}
	}
	fmt.Fprintln(w)
}

func firstLines(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = append(lines[:n], "...")
	}
	return lines
}
