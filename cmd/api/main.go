package main

import "task-prioritizer-backend/cmd/api/commands"

func main() {
	commands.Execute()
}
