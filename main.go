package main

import "nathanbeddoewebdev/perfsight/cmd"

func main() {
	cmd.Execute()
}
