package main

import "github.com/KaramelBytes/catprofile/cmd"

func main() {
	cmd.Execute()
}
