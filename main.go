package main

import "bludgeon/cmd"

func main() {
	cmd.Execute()
}
