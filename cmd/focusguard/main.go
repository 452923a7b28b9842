package main

import (
	"fmt"
	"os"

	"github.com/gabrielcapilla/focusguard/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "focusguard: %v\n", err)
		os.Exit(1)
	}
}
