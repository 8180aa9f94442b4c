package main

import (
	"os"

	"github.com/talentbridge/diploma-verifier/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
