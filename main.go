package main

import (
	"flag"
	"os"

	"github.com/klokku/timestudy/internal/app"
	log "github.com/sirupsen/logrus"
)

const defaultConfigPath = "./config/application.yaml"

func configureLogging() {
	if os.Getenv("LOG_FORMAT") == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	level := log.InfoLevel
	if value := os.Getenv("LOG_LEVEL"); value != "" {
		parsed, err := log.ParseLevel(value)
		if err != nil {
			log.Fatal(err)
		}
		level = parsed
	}
	log.SetLevel(level)
}

func main() {
	configureLogging()

	configPath := flag.String("config", "", "path to the YAML configuration file (default $ETUT_CONFIG or "+defaultConfigPath+")")
	flag.Parse()
	if *configPath == "" {
		*configPath = os.Getenv("ETUT_CONFIG")
	}
	if *configPath == "" {
		*configPath = defaultConfigPath
	}

	application, err := app.NewApplication(*configPath)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	if err := application.Run(); err != nil {
		log.Fatal(err)
	}
}
