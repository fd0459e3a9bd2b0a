package main

import "github.com/salwks/sdsmcp/internal/cli"

func main() {
	cli.Execute()
}
