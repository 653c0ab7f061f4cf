package main

import (
	"github.com/endfieldpass/backend/cmd/app"
)

func main() {
	app.Run()
}
