package main

import "github.com/fakeyudi/cropscan/cmd"

func main() {
	cmd.Execute()
}
