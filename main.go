package main

import "github.com/Mohsinsiddi/astrometer/cmd"

func main() {
	cmd.Execute()
}
