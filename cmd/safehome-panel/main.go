package main

import "github.com/oshokin/safehome/cmd/safehome-panel/cmd"

func main() {
	cmd.Execute()
}
