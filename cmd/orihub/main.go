package main

import (
	"fmt"
	"os"

	"github.com/s4mp41xao/orihub/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "orihub: %v\n", err)
		os.Exit(1)
	}
}
