package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/adampresley/adamgokit/rendering"
	"github.com/crocodeal/crocodealphotographie/cmd/website/internal/configuration"
	"github.com/crocodeal/crocodealphotographie/cmd/website/internal/viewmodels"
	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
	"github.com/crocodeal/crocodealphotographie/pkg/models"
	"github.com/crocodeal/crocodealphotographie/pkg/services"
)

type AdminHandlers interface {
	DashboardPage(w http.ResponseWriter, r *http.Request)
	Regenerate(w http.ResponseWriter, r *http.Request)
	Clean(w http.ResponseWriter, r *http.Request)
	CreateAlbumIndexes(w http.ResponseWriter, r *http.Request)
	Upload(w http.ResponseWriter, r *http.Request)
	BatchCreate(w http.ResponseWriter, r *http.Request)
	GetPortfolio(w http.ResponseWriter, r *http.Request)
}

type AdminControllerConfig struct {
	AlbumIndexService services.AlbumIndexServicer
	CleanupService    services.CleanupServicer
	Config            *configuration.Config
	OptimizerService  services.OptimizerServicer
	PortfolioService  services.PortfolioServicer
	Renderer          rendering.TemplateRenderer
	RunService        services.RunServicer
	Store             contentstore.ContentStore
	UploadService     services.UploadServicer
}

type AdminController struct {
	albumIndexService services.AlbumIndexServicer
	cleanupService    services.CleanupServicer
	config            *configuration.Config
	optimizerService  services.OptimizerServicer
	portfolioService  services.PortfolioServicer
	renderer          rendering.TemplateRenderer
	runService        services.RunServicer
	store             contentstore.ContentStore
	uploadService     services.UploadServicer
}

func NewAdminController(config AdminControllerConfig) AdminController {
	return AdminController{
		albumIndexService: config.AlbumIndexService,
		cleanupService:    config.CleanupService,
		config:            config.Config,
		optimizerService:  config.OptimizerService,
		portfolioService:  config.PortfolioService,
		renderer:          config.Renderer,
		runService:        config.RunService,
		store:             config.Store,
		uploadService:     config.UploadService,
	}
}

/*
GET /
*/
func (c AdminController) DashboardPage(w http.ResponseWriter, r *http.Request) {
	pageName := "pages/dashboard"

	viewData := viewmodels.Dashboard{
		BaseViewModel: viewmodels.BaseViewModel{},
	}

	runs, err := c.runService.GetRecent(20)

	if err != nil {
		slog.Error("error retrieving run history", "error", err)
		viewData.IsError = true
		viewData.Message = "There was a problem getting the run history."
	}

	viewData.Runs = runs
	c.renderer.Render(pageName, viewData, w)
}

/*
POST /api/regenerate
*/
func (c AdminController) Regenerate(w http.ResponseWriter, r *http.Request) {
	report, err := c.RunRegeneration(r.Context(), "api")

	if err != nil {
		status := http.StatusInternalServerError

		if errors.Is(err, contentstore.ErrConflict) {
			status = http.StatusConflict
		}

		writeJson(w, status, map[string]any{
			"success": false,
			"error":   err.Error(),
			"report":  report,
		})

		return
	}

	writeJson(w, http.StatusOK, map[string]any{
		"success": true,
		"message": report.Message,
		"report":  report,
	})
}

/*
RunRegeneration performs one full regeneration, records the run, refreshes
cover thumbnails when the index changed, and notifies the operator on
failure. Both the API route and the scheduled job come through here.
*/
func (c AdminController) RunRegeneration(ctx context.Context, trigger string) (models.RunReport, error) {
	report, err := c.portfolioService.Regenerate(ctx, trigger)

	if recordErr := c.runService.Record(report); recordErr != nil {
		slog.Error("error recording regeneration run", "error", recordErr)
	}

	if err != nil {
		slog.Error("regeneration run failed", "trigger", trigger, "error", err)

		if c.config.EmailApiKey != "" && c.config.OperatorEmail != "" {
			notifyErr := services.SendFailureEmail(
				c.config.EmailApiKey,
				c.config.OperatorName,
				c.config.OperatorEmail,
				"Crocodeal Photographie",
				"noreply@crocodealphotographie.fr",
				report,
			)

			if notifyErr != nil {
				slog.Error("error sending failure notification", "error", notifyErr)
			}
		}

		return report, err
	}

	if report.Changed {
		go func() {
			covers, coversErr := c.coversFromStore(context.Background())

			if coversErr != nil {
				slog.Error("error reading cover cache for optimization", "error", coversErr)
				return
			}

			c.optimizerService.OptimizeCovers(covers)
		}()
	}

	return report, nil
}

func (c AdminController) coversFromStore(ctx context.Context) (models.CoverCache, error) {
	covers := models.CoverCache{}

	content, err := c.store.FetchContent(ctx, c.config.CoverCachePath)

	if err != nil {
		return covers, err
	}

	err = json.Unmarshal([]byte(content), &covers)
	return covers, err
}

/*
POST /api/clean
*/
func (c AdminController) Clean(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Action string `json:"action"`
	}{}

	_ = json.NewDecoder(r.Body).Decode(&body)

	if body.Action == "reset" {
		if err := c.cleanupService.Reset(r.Context()); err != nil {
			writeJson(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   err.Error(),
			})

			return
		}

		writeJson(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "portfolio index reset",
		})

		return
	}

	result, err := c.cleanupService.Clean(r.Context())

	if err != nil {
		writeJson(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
			"result":  result,
		})

		return
	}

	writeJson(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "portfolio cleaned",
		"result":  result,
	})
}

/*
POST /api/album-indexes
*/
func (c AdminController) CreateAlbumIndexes(w http.ResponseWriter, r *http.Request) {
	result, err := c.albumIndexService.CreateMissing(r.Context())

	if err != nil {
		writeJson(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})

		return
	}

	writeJson(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   result,
	})
}

/*
POST /api/upload
*/
func (c AdminController) Upload(w http.ResponseWriter, r *http.Request) {
	body := struct {
		ImageBase64 string `json:"imageBase64"`
		Folder      string `json:"folder"`
		FileName    string `json:"fileName"`
	}{}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJson(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "request body is not valid JSON",
		})

		return
	}

	if body.ImageBase64 == "" {
		writeJson(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "imageBase64 is required",
		})

		return
	}

	result, err := c.uploadService.Upload(r.Context(), body.FileName, body.Folder, body.ImageBase64)

	if err != nil {
		writeJson(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})

		return
	}

	writeJson(w, http.StatusOK, map[string]any{
		"success":  true,
		"url":      result.URL,
		"fileName": result.FileName,
		"size":     result.Size,
	})
}

/*
POST /api/batch
*/
func (c AdminController) BatchCreate(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Category   string               `json:"category"`
		AlbumTitle string               `json:"albumTitle"`
		Files      []services.BatchFile `json:"files"`
	}{}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJson(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "request body is not valid JSON",
		})

		return
	}

	if body.Category == "" || body.AlbumTitle == "" || len(body.Files) == 0 {
		writeJson(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "category, albumTitle and files are required",
		})

		return
	}

	result, err := c.uploadService.BatchCreate(r.Context(), body.Category, body.AlbumTitle, body.Files)

	if err != nil {
		writeJson(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})

		return
	}

	writeJson(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
	})
}

/*
GET /api/portfolio?section=...
*/
func (c AdminController) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")

	if section == "" {
		writeJson(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "the section parameter is required",
		})

		return
	}

	items, err := c.store.List(r.Context(), path.Join(c.config.ContentRoot, strings.ToLower(section)))

	if err != nil {
		writeJson(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})

		return
	}

	writeJson(w, http.StatusOK, items)
}

func writeJson(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
