package main

import "github.com/forPelevin/notecut/internal/cli"

func main() {
	cli.Main()
}
