// Package main runs the employees service.
package main

import (
	"github.com/advdv/bfilter/bserve"
	"github.com/advdv/bfilter/internal/example"
	"go.uber.org/fx"
)

func main() {
	bserve.NewApp[example.Env](example.Routes,
		bserve.WithFx(fx.Provide(example.NewHandlers)),
	).Run()
}
