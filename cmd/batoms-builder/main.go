package main

import "github.com/beautiful-atoms/batoms-builder/cmd/batoms-builder/cmd"

func main() {
	cmd.Execute()
}
