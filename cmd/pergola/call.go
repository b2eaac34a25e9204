package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/pergola"
	"github.com/aretw0/pergola/pkg/domain"
)

var callCmd = &cobra.Command{
	Use:   "call <tool> [key=value ...]",
	Short: "Invoke a tool action directly",
	Long: `Invokes one tool call and prints the response. Arguments are given as
key=value pairs (string values) or key:=value pairs (raw JSON values).

  pergola call users action=get id=1
  pergola call users action=put id=3 name="Grace Hopper" age:=85`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, _, err := buildEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		tool := args[0]
		callArgs, err := parseArgs(args[1:])
		if err != nil {
			fmt.Printf("Invalid arguments: %v\n", err)
			os.Exit(1)
		}

		// Ctrl-C cancels the in-flight call cooperatively.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		showProgress, _ := cmd.Flags().GetBool("progress")
		var opts []pergola.CallOption
		if showProgress {
			opts = append(opts, pergola.WithProgress(func(ev domain.ProgressEvent) {
				fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", ev.Percent, ev.Message)
			}))
		}

		resp := engine.Execute(ctx, tool, callArgs, opts...)

		payload, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			fmt.Printf("Encode error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(payload))

		if resp.IsError {
			os.Exit(1)
		}
	},
}

// parseArgs turns key=value pairs into the raw argument object. A plain "="
// assigns a string; ":=" assigns the value parsed as JSON, so numbers,
// booleans and objects keep their type.
func parseArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}

		if jsonKey, ok := strings.CutSuffix(key, ":"); ok {
			if jsonKey == "" {
				return nil, fmt.Errorf("expected key:=value, got %q", pair)
			}
			var parsed any
			if err := json.Unmarshal([]byte(value), &parsed); err != nil {
				return nil, fmt.Errorf("argument %q: invalid JSON value: %w", jsonKey, err)
			}
			args[jsonKey] = parsed
			continue
		}
		args[key] = value
	}
	return args, nil
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().Bool("progress", true, "Print progress events to stderr")
}
