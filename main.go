package main

import "mediafetch-api-server/cmd"

func main() {
	cmd.Execute()
}
