package main

import "gdrive-share/cmd"

func main() {
	cmd.Execute()
}
