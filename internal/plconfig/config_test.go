package plconfig

import (
	"path/filepath"
	"testing"

	"github.com/andskur/argon2-hashing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExampleConfigRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pople.yaml")

	written, err := CreateExampleConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", conf.Database.Db)
	assert.Equal(t, "admin", conf.Admin.Login)
	assert.True(t, conf.Contact.Captcha)
	require.NoError(t, conf.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRequiresDatabase(t *testing.T) {
	conf := &Config{}
	assert.Error(t, conf.Validate())

	conf.Database = DatabaseConfig{Db: "sqlite"}
	assert.Error(t, conf.Validate())

	conf.Database.Path = "./test.db"
	require.NoError(t, conf.Validate())
}

func TestValidateAppliesDefaults(t *testing.T) {
	conf := &Config{Database: DatabaseConfig{Db: "sqlite", Path: "./test.db"}}
	require.NoError(t, conf.Validate())

	assert.Equal(t, 30, conf.Analytics.Lookback)
	assert.Equal(t, int64(5*1024*1024), conf.Uploads.MaxBytes)
	assert.Equal(t, 1920, conf.Uploads.MaxWidth)
	assert.Equal(t, "localhost:8080", conf.Listen.Website)
}

func TestHashAdminPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pople.yaml")
	conf := &Config{
		Database: DatabaseConfig{Db: "sqlite", Path: "./test.db"},
		Admin:    AdminConfig{Login: "admin", Pass: "supersecret"},
	}

	require.NoError(t, conf.HashAdminPassword(path))
	assert.Empty(t, conf.Admin.Pass)
	require.NotEmpty(t, conf.Admin.Hash)
	require.NoError(t, argon2.CompareHashAndPassword([]byte(conf.Admin.Hash), []byte("supersecret")))

	// Le fichier réécrit ne contient plus le mot de passe en clair
	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Admin.Pass)
	assert.Equal(t, conf.Admin.Hash, reloaded.Admin.Hash)
}

func TestHashAdminPasswordTooShort(t *testing.T) {
	conf := &Config{Admin: AdminConfig{Pass: "court"}}
	assert.Error(t, conf.HashAdminPassword(filepath.Join(t.TempDir(), "x.yaml")))
}
