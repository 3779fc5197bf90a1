package main

import "github.com/cmwaters/liquid/cmd/liquid/cmd"

func main() {
	cmd.Execute()
}
