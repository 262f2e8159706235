package main

import (
	"os"

	"github.com/abefas/GoTodoAPI/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
