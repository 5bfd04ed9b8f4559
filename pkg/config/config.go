package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	Store   StoreConfig
	Catalog CatalogConfig
	Auth    AuthConfig
	Log     LogConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// StoreConfig configuración del almacén SQLite.
type StoreConfig struct {
	Path string // ruta del archivo .db (":memory:" para pruebas)
}

// CatalogConfig configuración del catálogo de productos.
type CatalogConfig struct {
	Files []string // rutas de los CSV de proveedores (ISO-8859-1, separados por ';')
}

// AuthConfig configuración de credenciales y usuarios iniciales.
type AuthConfig struct {
	CredentialMode string // "plain" o "bcrypt"
	BcryptCost     int
	SeedUsers      bool // registrar los usuarios de arranque si la tabla está vacía
}

// LogConfig configuración del logger.
type LogConfig struct {
	Level string // trace, debug, info, warn, error
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, STORE_PATH, CATALOG_FILES, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	// También intenta config.env
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	// Bind de variables de entorno (Viper las lee automáticamente si AutomaticEnv está activo)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "spatrac"),
		},
		Store: StoreConfig{
			Path: getString(v, "STORE_PATH", "spatrac.db"),
		},
		Catalog: CatalogConfig{
			// CATALOG_FILES admite varias rutas separadas por coma
			Files: splitList(getString(v, "CATALOG_FILES", "data/products.csv")),
		},
		Auth: AuthConfig{
			CredentialMode: getString(v, "AUTH_CREDENTIAL_MODE", "plain"),
			BcryptCost:     getInt(v, "AUTH_BCRYPT_COST", 10),
			SeedUsers:      getBool(v, "AUTH_SEED_USERS", true),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
