package main

import (
	"todo-calendar/internal/cli"
)

// version will be set at build time
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
