package main

import (
	"context"
	"os"

	"github.com/jhoicas/spatrac/internal/application/auth"
	"github.com/jhoicas/spatrac/internal/application/report"
	"github.com/jhoicas/spatrac/internal/application/tracking"
	"github.com/jhoicas/spatrac/internal/domain/entity"
	infracatalog "github.com/jhoicas/spatrac/internal/infrastructure/catalog"
	"github.com/jhoicas/spatrac/internal/infrastructure/export"
	infrapdf "github.com/jhoicas/spatrac/internal/infrastructure/pdf"
	"github.com/jhoicas/spatrac/internal/infrastructure/sqlite"
	"github.com/jhoicas/spatrac/internal/interfaces/console"
	"github.com/jhoicas/spatrac/pkg/config"
	"github.com/jhoicas/spatrac/pkg/logger"
)

// Usuarios de arranque de una instalación nueva (se omiten si ya hay usuarios).
var seedUsers = []struct {
	username, password string
	department         entity.Department
	role               entity.Role
}{
	{"john_delivery", "pass123", entity.DepartmentDelivery, entity.RoleManager},
	{"mary_butchery", "pass456", entity.DepartmentButchery, entity.RoleManager},
	{"peter_bakery", "pass789", entity.DepartmentBakery, entity.RoleManager},
	{"sarah_hmr", "pass321", entity.DepartmentHMR, entity.RoleManager},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Path).
		Msg("iniciando aplicación")

	db, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén SQLite")
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migrar esquema")
	}

	userRepo := sqlite.NewUserRepository(db)
	lotRepo := sqlite.NewLotRepository(db)

	var opts []auth.Option
	if cfg.Auth.CredentialMode == "bcrypt" {
		opts = append(opts, auth.WithCredentialScheme(auth.BcryptCredentials{Cost: cfg.Auth.BcryptCost}))
	}
	sessions := auth.NewSessionManager(userRepo, opts...)

	if cfg.Auth.SeedUsers {
		if err := seed(sessions, userRepo, log); err != nil {
			log.Fatal().Err(err).Msg("registrar usuarios iniciales")
		}
	}

	cat, err := infracatalog.LoadFiles(cfg.Catalog.Files...)
	if err != nil {
		log.Fatal().Err(err).Strs("files", cfg.Catalog.Files).Msg("cargar catálogo de productos")
	}
	log.Info().Int("products", cat.Len()).Msg("catálogo cargado")

	reports := report.NewUseCase(
		lotRepo,
		infrapdf.NewMarotoTraceabilityGenerator(),
		export.NewCSVExporter(),
	)

	ui := console.New(sessions, reports, cat, log, os.Stdin, os.Stdout)
	controller := tracking.NewController(sessions, lotRepo, cat, ui)
	ui.SetController(controller)

	if err := ui.Run(context.Background()); err != nil {
		log.Error().Err(err).Msg("consola finalizada con error")
	}
	log.Info().Msg("aplicación detenida")
}

// seed registra los usuarios de arranque sólo sobre un registro vacío.
func seed(sessions *auth.SessionManager, users *sqlite.UserRepo, log *logger.Logger) error {
	existing, err := users.List()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, u := range seedUsers {
		if err := sessions.RegisterUser(u.username, u.password, u.department, u.role); err != nil {
			return err
		}
	}
	log.Info().Int("users", len(seedUsers)).Msg("usuarios iniciales registrados")
	return nil
}
