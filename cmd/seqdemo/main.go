package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"simpleseq/internal/demo"
)

const prompt = "seq> "

func main() {
	interactive := flag.Bool("i", false, "start an interactive shell after the walkthrough")
	quiet := flag.Bool("q", false, "skip the walkthrough")
	flag.Parse()

	if !*quiet {
		if err := demo.Walkthrough(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *interactive {
		os.Exit(repl())
	}
}

func repl() int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		var out []string
		for _, name := range demo.Commands() {
			if strings.HasPrefix(name, line) {
				out = append(out, name)
			}
		}
		return out
	})

	fmt.Println("\nType help for the command list, quit to exit.")
	sh := demo.NewShell()
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return 0
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return 0
		}
		ln.AppendHistory(line)

		out, err := sh.Exec(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Println(out)
	}
}
