package main

import (
	"game-soul-technology/quickqueue/quickqueue-server/pkg/config"
	"log"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("main load env failed %v", err)
	}

	server, err := Setup()
	if err != nil {
		log.Fatalf("main start failed %v", err)
		return
	}

	if err := server.Run(); err != nil {
		log.Fatalf("main run failed %v", err)
	}
}
