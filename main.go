package main

import "github.com/CraigKelly/nogold/cmd"

func main() {
	cmd.Execute()
}
