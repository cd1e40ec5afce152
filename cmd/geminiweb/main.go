package main

import "github.com/dmribeiro/geminiweb/internal/commands"

// Overridden at build time via -ldflags
var (
	version   = "0.1.0"
	buildTime = "unknown"
)

func main() {
	commands.Version = version
	commands.BuildTime = buildTime
	commands.Execute()
}
