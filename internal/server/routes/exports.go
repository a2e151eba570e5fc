package routes

import (
	"errors"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/ringmast4r/project147/internal/queue"
	"github.com/ringmast4r/project147/internal/server/middleware"
	"github.com/ringmast4r/project147/internal/store"
	"github.com/ringmast4r/project147/pkg/chart"
	"github.com/ringmast4r/project147/pkg/dataset"
	"github.com/ringmast4r/project147/pkg/logger"
)

type exportResponse struct {
	store.Export
	DownloadURL string `json:"download_url,omitempty"`
}

func exportsDisabled(c echo.Context) bool {
	app := c.(*middleware.AppContext).App
	return app.Exports == nil || app.Queue == nil
}

func CreateExportHandler(c echo.Context) error {
	type createExportBody struct {
		Chart  string         `json:"chart" validate:"required"`
		Filter dataset.Filter `json:"filter"`
	}
	body := new(createExportBody)
	if err := c.Bind(body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if !slices.Contains(chart.Names(), body.Chart) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown chart " + body.Chart})
	}
	if exportsDisabled(c) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Exports are not configured"})
	}

	cc := c.(*middleware.AppContext)
	ctx := c.Request().Context()
	exp, err := cc.App.Exports.Create(ctx, body.Chart, body.Filter, cc.User.UserID)
	if err != nil {
		logger.Error("[Server] Failed to create export", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if err := queue.EnqueueExport(cc.App.Queue, exp.ID); err != nil {
		logger.Error("[Server] Failed to queue export", "export_id", exp.ID, "err", err)
		_ = cc.App.Exports.MarkFailed(ctx, exp.ID, "could not be queued")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Export queue unavailable"})
	}

	return c.JSON(http.StatusAccepted, exportResponse{Export: exp})
}

func GetExportsHandler(c echo.Context) error {
	type getExportsParams struct {
		Limit int `query:"limit" validate:"min=0,max=100"`
	}
	params := new(getExportsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if exportsDisabled(c) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Exports are not configured"})
	}

	cc := c.(*middleware.AppContext)
	owner := cc.User.UserID
	if middleware.HasPermission(cc.User, middleware.PermExportViewAll) {
		owner = 0
	}
	res, err := cc.App.Exports.List(c.Request().Context(), owner, params.Limit)
	if err != nil {
		logger.Error("[Server] Failed to list exports", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, res)
}

// getOwnedExport loads the export named by the :id param and checks that
// the user may see it. On failure the response has been written and ok is
// false.
func getOwnedExport(c echo.Context) (exp store.Export, ok bool, err error) {
	type exportParams struct {
		ID string `param:"id" validate:"required"`
	}
	params := new(exportParams)
	if err := c.Bind(params); err != nil {
		return exp, false, c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return exp, false, c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if exportsDisabled(c) {
		return exp, false, c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Exports are not configured"})
	}

	cc := c.(*middleware.AppContext)
	exp, err = cc.App.Exports.Get(c.Request().Context(), params.ID)
	if errors.Is(err, store.ErrNotFound) {
		return exp, false, c.JSON(http.StatusNotFound, map[string]string{"error": "Export not found"})
	}
	if err != nil {
		logger.Error("[Server] Failed to get export", "export_id", params.ID, "err", err)
		return exp, false, c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if !middleware.CanAccess(cc.User, exp.CreatedBy) {
		// Do not reveal that the export exists.
		return exp, false, c.JSON(http.StatusNotFound, map[string]string{"error": "Export not found"})
	}
	return exp, true, nil
}

func GetExportHandler(c echo.Context) error {
	exp, ok, err := getOwnedExport(c)
	if !ok {
		return err
	}

	res := exportResponse{Export: exp}
	s3 := c.(*middleware.AppContext).App.S3
	if exp.Status == store.StatusDone && exp.ObjectKey != "" && s3 != nil {
		link, err := s3.PresignGet(c.Request().Context(), exp.ObjectKey)
		if err != nil {
			logger.Error("[Server] Failed to sign export link", "export_id", exp.ID, "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		res.DownloadURL = link
	}
	return c.JSON(http.StatusOK, res)
}

func DeleteExportHandler(c echo.Context) error {
	exp, ok, err := getOwnedExport(c)
	if !ok {
		return err
	}
	if exp.Status == store.StatusProcessing {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Export is still being processed"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	if exp.ObjectKey != "" && app.S3 != nil {
		if err := app.S3.Delete(ctx, exp.ObjectKey); err != nil {
			logger.Error("[Server] Failed to delete export file", "export_id", exp.ID, "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
	}
	if err := app.Exports.Delete(ctx, exp.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Error("[Server] Failed to delete export", "export_id", exp.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.NoContent(http.StatusNoContent)
}
