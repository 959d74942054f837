package main

import (
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/app"
)

func main() {
	app.Run()
}
