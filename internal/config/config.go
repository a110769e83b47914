package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type StorageType string

const (
	MemoryStorage   StorageType = "memory"
	JsonStorage     StorageType = "json"
	PostgresStorage StorageType = "postgres"
)

type Application struct {
	Server   Server   `koanf:"server"`
	Study    Study    `koanf:"study"`
	Export   Export   `koanf:"export"`
	Storage  Storage  `koanf:"storage"`
	Database Database `koanf:"db"`
	Sheets   Sheets   `koanf:"sheets"`
}

type Server struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"readtimeout"`
	WriteTimeout time.Duration `koanf:"writetimeout"`
	IdleTimeout  time.Duration `koanf:"idletimeout"`
}

type Study struct {
	Shifts []string `koanf:"shifts"`
}

type Export struct {
	OutputDir string `koanf:"outputdir"`
	Layout    Layout `koanf:"layout"`
}

type Layout struct {
	Title        string    `koanf:"title"`
	SheetName    string    `koanf:"sheetname"`
	ColumnWidths []float64 `koanf:"columnwidths"`
	SectionOrder []string  `koanf:"sectionorder"`
}

type Storage struct {
	Type      StorageType `koanf:"type"`
	StateFile string      `koanf:"statefile"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
	// MigrationsDir overrides the lookup of the nearest "migrations" directory.
	MigrationsDir string `koanf:"migrationsdir"`
}

type Sheets struct {
	Enabled         bool   `koanf:"enabled"`
	CredentialsFile string `koanf:"credentialsfile"`
}

func defaults() Application {
	return Application{
		Server: Server{
			Addr:         ":8181",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Study: Study{
			Shifts: []string{"1. Vardiya", "2. Vardiya", "3. Vardiya"},
		},
		Export: Export{
			OutputDir: "excel_raporlar",
			Layout: Layout{
				Title:        "Zaman Etüdü Raporu",
				SheetName:    "Etüt Raporu",
				ColumnWidths: []float64{22, 18, 22, 18, 24, 18, 18},
				SectionOrder: []string{"header", "metrics", "stoppages"},
			},
		},
		Storage: Storage{
			Type:      JsonStorage,
			StateFile: "veri_kaydi.json",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "etut",
			Pass:   "",
			Name:   "etut",
			Schema: "etut",
		},
	}
}

// listKeys are the settings filled from a comma separated env value.
var listKeys = map[string]bool{
	"study.shifts":               true,
	"export.layout.columnwidths": true,
	"export.layout.sectionorder": true,
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "ETUT_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "ETUT_")), "_", ".")
			if listKeys[k] {
				parts := strings.Split(v, ",")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				return k, parts
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
