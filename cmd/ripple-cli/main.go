package main

import "github.com/ripplechat/ripple/cmd/ripple-cli/cmd"

func main() {
	cmd.Execute()
}
