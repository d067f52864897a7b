package main

import "medtrack/internal/cmd"

func main() {
	cmd.Execute()
}
