package main

import "pmsync/cmd"

func main() {
	cmd.Execute()
}
