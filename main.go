package main

import "github.com/ML-Enthusiast12/Bot-And-Database-API/cmd"

func main() {
	cmd.Execute()
}
