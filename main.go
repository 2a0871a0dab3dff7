package main

import "studio-gallery-backend/cmd"

func main() {
	cmd.Run()
}
