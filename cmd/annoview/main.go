package main

import "github.com/philipparndt/annoview/cmd"

func main() {
	cmd.Execute()
}
