package routes

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/zeebo/blake3"

	"github.com/ringmast4r/project147/internal/server/middleware"
	"github.com/ringmast4r/project147/pkg/chart"
	"github.com/ringmast4r/project147/pkg/dataset"
)

func chartDeps(app *middleware.App) chart.Deps {
	g, _ := app.Data.Provider.Graph()
	return chart.Deps{Graph: g, Theographic: app.Data.Theographic, CrossRefs: app.Data.CrossRefStats()}
}

// chartCacheKey changes whenever any input of the chart changes.
func chartCacheKey(app *middleware.App, name string, f dataset.Filter) string {
	theo := app.Data.Theographic != nil && app.Data.Theographic.Loaded()
	refs := 0
	if set := app.Data.CrossRefs(); set != nil {
		refs = len(set.Records)
	}
	return name + "|" + f.Key() + "|" + app.Data.Provider.Snapshot().Version +
		"|" + strconv.FormatBool(theo) + "|" + strconv.Itoa(refs)
}

func etag(body []byte) string {
	sum := blake3.Sum256(body)
	return `"` + hex.EncodeToString(sum[:12]) + `"`
}

func ListChartsHandler(c echo.Context) error {
	type chartInfo struct {
		Name        string `json:"name"`
		Theographic bool   `json:"theographic"`
	}
	out := []chartInfo{}
	for _, name := range chart.Names() {
		out = append(out, chartInfo{Name: name, Theographic: chart.Theographic(name)})
	}
	return c.JSON(http.StatusOK, out)
}

func GetChartHandler(c echo.Context) error {
	type getChartParams struct {
		Name string `param:"name" validate:"required"`
		dataset.Filter
	}
	params := new(getChartParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	return serveChart(c, params.Name, params.Filter)
}

func GetStatsHandler(c echo.Context) error {
	return serveChart(c, "stats", dataset.Filter{})
}

func serveChart(c echo.Context, name string, f dataset.Filter) error {
	app := c.(*middleware.AppContext).App
	f = f.Normalized()

	key := chartCacheKey(app, name, f)
	cached, ok := middleware.CachedChart{}, false
	if app.Charts != nil {
		cached, ok = app.Charts.Get(key)
	}

	if !ok {
		payload, err := chart.Build(name, chartDeps(app), f)
		switch {
		case errors.Is(err, chart.ErrUnknownChart):
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, dataset.ErrNotLoaded), errors.Is(err, chart.ErrTheographicNotLoaded):
			return notLoaded(c, err)
		case err != nil:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		cached = middleware.CachedChart{Body: body, ETag: etag(body)}
		if app.Charts != nil {
			app.Charts.Add(key, cached)
		}
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("ETag", cached.ETag)
	if c.Request().Header.Get("If-None-Match") == cached.ETag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, cached.Body)
}
