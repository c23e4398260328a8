package main

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/awsconfig"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/mux"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/s3"
	"github.com/crocodeal/crocodealphotographie/cmd/website/internal/admin"
	"github.com/crocodeal/crocodealphotographie/cmd/website/internal/configuration"
	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
	"github.com/crocodeal/crocodealphotographie/pkg/services"
	_ "github.com/glebarez/sqlite"
	"github.com/rfberaldo/sqlz"
	"github.com/rfberaldo/sqlz/binds"
)

var (
	Version string = "development"
	appName string = "crocodealphotographie"

	//go:embed app
	appFS embed.FS

	//go:embed sql-migrations
	sqlMigrationsFs embed.FS

	config configuration.Config

	/* Services */
	albumIndexService services.AlbumIndexServicer
	cleanupService    services.CleanupServicer
	db                *sqlz.DB
	optimizerService  services.OptimizerServicer
	portfolioService  services.PortfolioServicer
	renderer          rendering.TemplateRenderer
	runService        services.RunServicer
	scannerService    services.ScannerServicer
	store             contentstore.ContentStore
	uploadService     services.UploadServicer
	validatorService  services.ValidatorServicer

	/* Controllers */
	adminController admin.AdminController
)

func main() {
	var (
		err error
	)

	config = configuration.LoadConfig()
	setupLogger(&config)

	slog.Info("configuration loaded",
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("loglevel", config.LogLevel),
		slog.String("host", config.Host),
		slog.String("githubRepo", config.GithubRepo),
		slog.String("awsEndpointUrl", config.AwsEndpointUrl),
		slog.String("awsRegion", config.AwsRegion),
	)

	slog.Debug("setting up...")

	shutdownCtx, cancel := context.WithCancel(context.Background())

	/*
	 * Setup services
	 */
	binds.Register("sqlite", binds.BindByDriver("sqlite3"))
	if db, err = sqlz.Connect("sqlite", config.DSN); err != nil {
		panic(err)
	}

	migrateDatabase()

	awsConfig := &awsconfig.Config{
		Endpoint:        config.AwsEndpointUrl,
		Region:          config.AwsRegion,
		AccessKeyID:     config.AwsAccessKeyId,
		SecretAccessKey: config.AwsSecretAccessKey,
	}

	retrier.Retry(func() error {
		if err = awsConfig.Load(); err != nil {
			slog.Error("failed to load AWS config. trying again", "error", err)
			return err
		}

		return nil
	})

	if err != nil {
		panic(err)
	}

	s3Client, err := s3.NewClient(awsConfig)

	if err != nil {
		panic(err)
	}

	renderer, err = rendering.NewGoTemplateRenderer(rendering.GoTemplateRendererConfig{
		TemplateDir:       "app",
		TemplateExtension: ".html",
		TemplateFS:        appFS,
		PagesDir:          "pages",
	})

	if err != nil {
		panic(err)
	}

	githubOwner, githubRepo := config.GithubOwnerRepo()

	if githubOwner == "" {
		slog.Warn("GITHUB_REPO is not configured. content store operations will fail until it is set")
	}

	store = contentstore.NewGitHubStore(contentstore.GitHubStoreConfig{
		Owner:  githubOwner,
		Repo:   githubRepo,
		Branch: config.GithubBranch,
		Token:  config.GithubToken,
	})

	scannerService = services.NewScannerService(services.ScannerServiceConfig{
		Store:          store,
		MaxScanWorkers: config.MaxScanWorkers,
	})

	validatorService = services.NewValidatorService(services.ValidatorServiceConfig{
		Store: store,
	})

	portfolioService = services.NewPortfolioService(services.PortfolioServiceConfig{
		Store:          store,
		Scanner:        scannerService,
		Validator:      validatorService,
		Categories:     config.CategoryList(),
		ContentRoot:    config.ContentRoot,
		IndexPath:      config.IndexPath,
		CoverCachePath: config.CoverCachePath,
	})

	cleanupService = services.NewCleanupService(services.CleanupServiceConfig{
		Store:            store,
		Validator:        validatorService,
		PortfolioService: portfolioService,
		Categories:       config.CategoryList(),
		ContentRoot:      config.ContentRoot,
		ImageRoot:        config.ImageRoot,
		IndexPath:        config.IndexPath,
	})

	albumIndexService = services.NewAlbumIndexService(services.AlbumIndexServiceConfig{
		Store:       store,
		Categories:  config.CategoryList(),
		ContentRoot: config.ContentRoot,
	})

	uploadService = services.NewUploadService(services.UploadServiceConfig{
		Store:       store,
		S3Client:    s3Client,
		Bucket:      config.AwsBucket,
		CdnBaseURL:  config.CdnBaseURL,
		ContentRoot: config.ContentRoot,
	})

	optimizerService = services.NewOptimizerService(services.OptimizerServiceConfig{
		AwsBucket:       config.AwsBucket,
		AwsRegion:       config.AwsRegion,
		MaxWorkers:      config.MaxOptimizerWorkers,
		S3Client:        s3Client,
		ShutdownCtx:     shutdownCtx,
		ThumbnailFolder: config.ThumbnailFolder,
	})

	runService = services.NewRunService(services.RunServiceConfig{
		DB: db,
	})

	/*
	 * Setup controllers
	 */
	adminController = admin.NewAdminController(admin.AdminControllerConfig{
		AlbumIndexService: albumIndexService,
		CleanupService:    cleanupService,
		Config:            &config,
		OptimizerService:  optimizerService,
		PortfolioService:  portfolioService,
		Renderer:          renderer,
		RunService:        runService,
		Store:             store,
		UploadService:     uploadService,
	})

	/*
	 * Setup router and http server
	 */
	slog.Debug("setting up routes...")

	adminTokenMiddleware := newAdminTokenMiddleware(
		config.AdminToken,
		[]string{
			"/static",
			"/heartbeat",
		},
	)

	routes := []mux.Route{
		{Path: "GET /heartbeat", HandlerFunc: heartbeat},
		{Path: "GET /", HandlerFunc: adminController.DashboardPage},
		{Path: "POST /api/regenerate", HandlerFunc: adminController.Regenerate, Middlewares: []mux.MiddlewareFunc{adminTokenMiddleware}},
		{Path: "POST /api/clean", HandlerFunc: adminController.Clean, Middlewares: []mux.MiddlewareFunc{adminTokenMiddleware}},
		{Path: "POST /api/album-indexes", HandlerFunc: adminController.CreateAlbumIndexes, Middlewares: []mux.MiddlewareFunc{adminTokenMiddleware}},
		{Path: "POST /api/upload", HandlerFunc: adminController.Upload, Middlewares: []mux.MiddlewareFunc{adminTokenMiddleware}},
		{Path: "POST /api/batch", HandlerFunc: adminController.BatchCreate, Middlewares: []mux.MiddlewareFunc{adminTokenMiddleware}},
		{Path: "GET /api/portfolio", HandlerFunc: adminController.GetPortfolio, Middlewares: []mux.MiddlewareFunc{adminTokenMiddleware}},
	}

	routerConfig := mux.RouterConfig{
		Address:              config.Host,
		Debug:                Version == "development",
		ServeStaticContent:   true,
		StaticContentRootDir: "app",
		StaticContentPrefix:  "/static/",
		StaticFS:             appFS,
		HttpWriteTimeout:     60,
	}

	m := mux.SetupRouter(routerConfig, routes)
	httpServer, quit := mux.SetupServer(routerConfig, m)

	/*
	 * Start the scheduled regeneration job
	 */
	setupRegenerationJob(shutdownCtx, quit)

	/*
	 * Wait for graceful shutdown
	 */
	slog.Info("server started")

	<-quit

	cancel()
	mux.Shutdown(httpServer)
	slog.Info("server stopped")
}

func heartbeat(w http.ResponseWriter, r *http.Request) {
	httphelpers.TextOK(w, "OK")
}

func setupLogger(config *configuration.Config) {
	level := slog.LevelDebug

	switch strings.ToLower(config.LogLevel) {
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}

func migrateDatabase() {
	var (
		err  error
		dirs []fs.DirEntry
		b    []byte
	)

	if dirs, err = sqlMigrationsFs.ReadDir("sql-migrations"); err != nil {
		panic(err)
	}

	for _, d := range dirs {
		if d.IsDir() {
			continue
		}

		if strings.HasPrefix(d.Name(), "commit") {
			if b, err = fs.ReadFile(sqlMigrationsFs, filepath.Join("sql-migrations", d.Name())); err != nil {
				panic(err)
			}

			if err = runSqlScript(b); err != nil {
				if !isIgnorableError(err) {
					panic(err)
				}
			}
		}
	}
}

func runSqlScript(script []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := db.Exec(ctx, string(script))
	return err
}

func isIgnorableError(err error) bool {
	if strings.Contains(err.Error(), "duplicate column") {
		return true
	}

	return false
}

func setupRegenerationJob(shutdownCtx context.Context, quit chan os.Signal) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		running := true

		runner := func() {
			defer func() {
				running = false
			}()

			if _, err := adminController.RunRegeneration(shutdownCtx, "scheduled"); err != nil {
				slog.Error("scheduled regeneration failed", "error", err)
				return
			}

			slog.Info("scheduled regeneration finished.")
		}

		runner()

		for {
			select {
			case <-quit:
				return

			case <-ticker.C:
				if running {
					slog.Info("regeneration already running. skipping...")
					continue
				}

				running = true
				runner()
			}
		}
	}()
}
