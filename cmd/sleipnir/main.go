package main

import "github.com/xigt/sleipnir/internal/cli"

func main() {
	cli.Execute()
}
