package main

import "github.com/pfrederiksen/kino-draws/internal/cli"

func main() {
	cli.Execute()
}
