package main

import (
	"github.com/andrewjfei/klick-server/internal/app"
	"github.com/andrewjfei/klick-server/internal/config"
)

func main() {
	app.Go(config.Load())
}
