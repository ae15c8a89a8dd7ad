package main

import "github.com/kamusis/skills-sync/cmd"

func main() {
	cmd.Execute()
}
