package main

import (
	"fmt"
	"os"

	"scramgen/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "scramgen: %v\n", err)
		os.Exit(1)
	}
}
