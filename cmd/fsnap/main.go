package main

import "github.com/jvs-project/fsnap/internal/cli"

func main() {
	cli.Execute()
}
