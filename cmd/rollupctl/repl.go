package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// REPL is the interactive command loop.
type REPL struct {
	app   *App
	liner *liner.State
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".rollupctl_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("rollupctl - shard rollup tracker (shards=%d, tiers=%d)\n", r.app.cfg.ShardCount, len(r.app.cfg.Tiers))
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("rollupctl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "ingest":
			r.cmdIngest(args)

		case "sync":
			r.cmdSync(args)

		case "push", "dirty":
			r.cmdPush(args)

		case "age":
			r.cmdAge(args)

		case "rollup":
			r.cmdRollup(args)

		case "snapshot", "inspect":
			r.cmdSnapshot(args)

		case "manage":
			r.cmdManage(args)

		case "unmanage":
			r.cmdUnmanage(args)

		case "info":
			r.cmdInfo()

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"ingest", "sync", "push", "dirty", "age", "rollup",
		"snapshot", "inspect", "manage", "unmanage", "info", "clear", "cls",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  ingest <shard> <gran> <slot> [millis]   Record an ingest write")
	fmt.Println("  sync <shard>                            Pull and merge persisted state")
	fmt.Println("  push <shard>                            Push dirty slots to storage")
	fmt.Println("  age <shard> <gran> [maxAgeMillis]        List slots older than threshold")
	fmt.Println("  rollup <shard> <gran> <slot>             Mark a slot Rolled")
	fmt.Println("  snapshot <shard>                         Show every known slot for a shard")
	fmt.Println("  manage <shard> / unmanage <shard>        Add or remove from managed set")
	fmt.Println("  info                                     Show config and tick counters")
	fmt.Println("  help                                     Show this help")
	fmt.Println("  exit / quit / q                          Exit")
}
