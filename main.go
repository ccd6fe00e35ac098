package main

import "github.com/moostools/mlint/cmd"

func main() {
	cmd.Execute()
}
