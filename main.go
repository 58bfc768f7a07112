package main

import "github.com/jsphweid/cpword/cmd"

func main() {
	cmd.Execute()
}
