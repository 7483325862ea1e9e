package main

import "github.com/oshokin/slope-guard/cmd/slope-guard-device/cmd"

func main() {
	cmd.Execute()
}
