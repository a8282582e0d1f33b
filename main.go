package main

import "github.com/KaramelBytes/framekit-cli/cmd"

func main() {
	cmd.Execute()
}
