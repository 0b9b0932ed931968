package ux

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// BannerInfo is what `colossus serve` prints at startup.
type BannerInfo struct {
	Version    string
	Listen     string // empty when the HTTP API is disabled
	Model      string
	ProjectDir string
	Command    []string // example agent command line
}

// Banner prints the startup banner.
func Banner(w io.Writer, info BannerInfo) {
	fmt.Fprintln(w, cyanStyle.Bold(true).Render("colossus "+info.Version))
	fmt.Fprintln(w)

	server := "disabled"
	if info.Listen != "" {
		server = "http://" + info.Listen
	}
	model := info.Model
	if model == "" {
		model = "(agent default)"
	}
	rows := [][2]string{
		{"Control API:", server},
		{"Model:", model},
		{"Project directory:", info.ProjectDir},
		{"Example agent command:", shellJoin(info.Command)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(r[0]), valueStyle.Render(r[1]))
	}
	fmt.Fprintln(w)
}

// shellJoin quotes arguments that would not survive a copy-paste into a shell.
func shellJoin(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'$`\\<>|&;*?") {
			a = strconv.Quote(a)
		}
		out[i] = a
	}
	return strings.Join(out, " ")
}
