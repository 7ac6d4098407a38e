package main

import "github.com/KaramelBytes/tablelens/cmd"

func main() {
	cmd.Execute()
}
