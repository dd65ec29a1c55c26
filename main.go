package main

import "mercari-ingest/cmd"

func main() {
	cmd.Execute()
}
