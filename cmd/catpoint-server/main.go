package main

import "github.com/oshokin/catpoint/cmd/catpoint-server/cmd"

func main() {
	cmd.Execute()
}
