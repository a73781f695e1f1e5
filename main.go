package main

import "test-manifest/cmd"

func main() {
	cmd.Execute()
}
