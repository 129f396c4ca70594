package main

import "github.com/robinebers/transcript-rag/cmd"

func main() {
	cmd.Execute()
}
