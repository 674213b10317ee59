package main

import "github.com/custodia-labs/lectern/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
