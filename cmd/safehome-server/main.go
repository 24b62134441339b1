package main

import "github.com/oshokin/safehome/cmd/safehome-server/cmd"

func main() {
	cmd.Execute()
}
