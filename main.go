package main

import "github.com/robmorgan/beatwarp/cmd"

func main() {
	cmd.Execute()
}
