package main

import (
	"fmt"
	"os"

	"quiz-session-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "quiz-session-service:", err)
		os.Exit(1)
	}
}
