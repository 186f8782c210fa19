package main

import (
	"fmt"
	"os"

	"github.com/rjcarver/tasktrack/cmd/cli/auth"
	"github.com/rjcarver/tasktrack/cmd/cli/root"
	"github.com/rjcarver/tasktrack/cmd/cli/tasks"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	tasks.InitTasks(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
