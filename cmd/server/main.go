package main

import (
	"github.com/ripplechat/ripple/internal/server"
)

func main() {
	s := server.New()
	s.RegisterRoutes()
	s.Start(s.Cfg.Addr)
}
