package plconfig

import (
	"fmt"
	"log/syslog"
	"os"

	"github.com/andskur/argon2-hashing"
	"gopkg.in/yaml.v3"
)

type Config struct {
	SiteName        string          `yaml:"sitename"`
	TrustedProxies  []string        `yaml:"trustedproxies"`
	TrustedPlatform string          `yaml:"trustedplatform"`
	Database        DatabaseConfig  `yaml:"database"`
	Analytics       AnalyticsConfig `yaml:"analytics"`
	Uploads         UploadsConfig   `yaml:"uploads"`
	StaticPath      string          `yaml:"staticpath"`
	Admin           AdminConfig     `yaml:"admin"`
	Contact         ContactConfig   `yaml:"contact"`
	Production      bool            `yaml:"production"`
	Listen          ListenConfig    `yaml:"listen"`
	Logger          LoggerConfig    `yaml:"logger"`
}

type LoggerConfig struct {
	Level  string             `yaml:"level"`
	File   LoggerFileConfig   `yaml:"file"`
	Syslog LoggerSyslogConfig `yaml:"syslog"`
}

type LoggerFileConfig struct {
	Enable     bool   `yaml:"enable"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"`
	Compress   bool   `yaml:"compress"`
}

type LoggerSyslogConfig struct {
	Enable   bool            `yaml:"enable"`
	Protocol string          `yaml:"protocol"`
	Address  string          `yaml:"address"`
	Tag      string          `yaml:"tag"`
	Priority syslog.Priority `yaml:"priority"`
}

type ListenConfig struct {
	Website string `yaml:"website"`
	Metrics string `yaml:"metrics"`
}

type AdminConfig struct {
	Login string `yaml:"login"`
	Pass  string `yaml:"pass"`
	Hash  string `yaml:"hash"`
	Email string `yaml:"email"`
}

type DatabaseConfig struct {
	Db   string `yaml:"db"`
	Path string `yaml:"path"`
	Dsn  string `yaml:"dsn"`
}

// AnalyticsConfig décrit la base analytics. Db vide = réutiliser la base
// principale. Le chemin GeoIP est optionnel.
type AnalyticsConfig struct {
	Db        string      `yaml:"db"`
	Path      string      `yaml:"path"`
	Dsn       string      `yaml:"dsn"`
	Redis     RedisConfig `yaml:"redis"`
	GeoIPPath string      `yaml:"geoippath"`
	Lookback  int         `yaml:"lookbackdays"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	Db   int    `yaml:"db"`
}

type UploadsConfig struct {
	Path     string `yaml:"path"`
	MaxBytes int64  `yaml:"maxbytes"`
	MaxWidth int    `yaml:"maxwidth"`
}

type ContactConfig struct {
	Captcha bool `yaml:"captcha"`
}

func CreateExampleConfig(filename string) (string, error) {
	example := &Config{
		SiteName: "PO+PLE",
		Database: DatabaseConfig{
			Db:   "sqlite",
			Path: "./events.db",
		},
		Analytics: AnalyticsConfig{
			Db:       "sqlite",
			Path:     "./analytics.db",
			Lookback: 30,
		},
		Uploads: UploadsConfig{
			Path:     "./static/uploads",
			MaxBytes: 5 * 1024 * 1024,
			MaxWidth: 1920,
		},
		Admin: AdminConfig{
			Login: "admin",
			Pass:  "admin1234",
			Email: "admin@pople.local",
		},
		Contact: ContactConfig{
			Captcha: true,
		},
		StaticPath: "./static",
		Production: false,
		Logger: LoggerConfig{
			Level: "info",
			File: LoggerFileConfig{
				Enable: false,
			},
			Syslog: LoggerSyslogConfig{
				Enable: false,
			},
		},
		Listen: ListenConfig{
			Website: "0.0.0.0:8080",
			Metrics: "0.0.0.0:8090",
		},
	}

	if filename == "/etc/" {
		example.Listen.Website = "127.0.0.1:8000"
		example.Production = true
		example.Database.Path = "/var/lib/pople/events.db"
		example.Analytics.Path = "/var/lib/pople/analytics.db"
		example.Uploads.Path = "/var/lib/pople/static/uploads"
		example.StaticPath = "/var/lib/pople/static"
		example.Logger.File = LoggerFileConfig{
			Enable:     true,
			Path:       "/var/log/pople/pople.log",
			MaxSize:    100,
			MaxBackups: 30,
			MaxAge:     7,
			Compress:   true,
		}
		filename = "/etc/pople/config.yaml"
	}

	return filename, WriteConfigYaml(filename, example)
}

func WriteConfigYaml(filename string, conf *Config) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}

// Charger la configuration YAML
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("impossible de lire le fichier %s: %v", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("erreur de parsing YAML: %v", err)
	}

	return &config, nil
}

// Validate vérifie la cohérence de la configuration et applique les défauts.
func (c *Config) Validate() error {
	if c.Database.Db == "" {
		return fmt.Errorf("database.db ne peut pas être vide")
	}
	if c.Database.Db == "sqlite" && c.Database.Path == "" {
		return fmt.Errorf("database.path ne peut pas être vide")
	}
	if c.Database.Db == "mysql" && c.Database.Dsn == "" {
		return fmt.Errorf("database.dsn ne peut pas être vide")
	}
	if c.Analytics.Db == "sqlite" && c.Analytics.Path == "" {
		return fmt.Errorf("analytics.path ne peut pas être vide")
	}
	if c.Analytics.Db == "mysql" && c.Analytics.Dsn == "" {
		return fmt.Errorf("analytics.dsn ne peut pas être vide")
	}
	if c.Analytics.Lookback <= 0 {
		c.Analytics.Lookback = 30
	}
	if c.Uploads.MaxBytes <= 0 {
		c.Uploads.MaxBytes = 5 * 1024 * 1024
	}
	if c.Uploads.MaxWidth <= 0 {
		c.Uploads.MaxWidth = 1920
	}
	if c.Listen.Website == "" {
		c.Listen.Website = "localhost:8080"
	}
	return nil
}

// HashAdminPassword remplace admin.pass par son hash argon2 au premier
// lancement et réécrit le fichier : le mot de passe en clair ne
// survit pas au démarrage.
func (c *Config) HashAdminPassword(configFile string) error {
	if c.Admin.Pass == "" {
		return nil
	}
	if len(c.Admin.Pass) < 8 {
		return fmt.Errorf("le mot de passe doit contenir au moins 8 caractères")
	}

	hash, err := argon2.GenerateFromPassword([]byte(c.Admin.Pass), argon2.DefaultParams)
	if err != nil {
		return err
	}
	c.Admin.Hash = string(hash)
	c.Admin.Pass = ""
	return WriteConfigYaml(configFile, c)
}

func CreateExample(shouldCreateExample bool, configFile string) {
	// Handle example creation
	if shouldCreateExample {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
		}
		os.Exit(1)
	}

	_, err := os.Stat(configFile)
	if err != nil && os.IsNotExist(err) {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}

	}
}

func handleExampleCreation(filename string) error {
	if filename == "" {
		filename = "pople.yaml"
	}
	filename, err := CreateExampleConfig(filename)
	if err != nil {
		return fmt.Errorf("erreur création exemple: %v", err)
	}

	fmt.Printf("✅ Fichier exemple créé: %s\n", filename)
	fmt.Println("⚠️  admin.pass sera automatiquement hashé en argon2 dans admin.hash au premier lancement")
	return nil
}
