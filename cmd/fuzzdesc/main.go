package main

import "fuzzdesc/cmd/fuzzdesc/cmd"

func main() {
	cmd.Execute()
}
