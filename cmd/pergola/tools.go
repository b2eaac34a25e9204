package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/pergola/internal/presentation/tui"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered tools and their actions",
	Run: func(cmd *cobra.Command, args []string) {
		engine, _, err := buildEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		var b strings.Builder
		for _, info := range engine.Tools() {
			fmt.Fprintf(&b, "# %s\n\n", info.Name)
			if info.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", info.Description)
			}
			fmt.Fprintf(&b, "Discriminator: `%s`\n\n", info.Discriminator)
			for _, a := range info.Actions {
				var tags []string
				if a.Destructive {
					tags = append(tags, "destructive")
				}
				if a.ReadOnly {
					tags = append(tags, "read-only")
				}
				suffix := ""
				if len(tags) > 0 {
					suffix = " *(" + strings.Join(tags, ", ") + ")*"
				}
				fmt.Fprintf(&b, "- **%s**%s", a.Key, suffix)
				if a.Description != "" {
					fmt.Fprintf(&b, " - %s", a.Description)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}

		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		render := tui.NewRenderer(width)
		out, err := render(b.String())
		if err != nil {
			// Fall back to raw markdown on render failure.
			fmt.Println(b.String())
			return
		}
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
