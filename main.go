package main

import "github.com/khanhnv2901/seca-traffic/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
