package main

import "github.com/oshokin/slope-guard/cmd/slope-guard-server/cmd"

func main() {
	cmd.Execute()
}
