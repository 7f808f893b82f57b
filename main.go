package main

import "github.com/KaramelBytes/sheetreduce/cmd"

func main() {
	cmd.Execute()
}
