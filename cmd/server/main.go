package main

import "holidayhub/internal/app/server"

func main() {
	server.Run()
}
