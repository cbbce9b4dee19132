package main

import (
	"os"

	"github.com/onesgame/onesdefi/cmd/defisim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
