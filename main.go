package main

import (
	"os"

	"github.com/kubev2v/priority-scheduler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
