package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ringmast4r/project147/internal/queue"
	"github.com/ringmast4r/project147/internal/server/middleware"
	"github.com/ringmast4r/project147/pkg/dataset"
	"github.com/ringmast4r/project147/pkg/logger"
)

const defaultConnectionsLimit = 500

func notLoaded(c echo.Context, err error) error {
	return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
}

// currentGraph returns the served graph or dataset.ErrNotLoaded.
func currentGraph(c echo.Context) (*dataset.Graph, error) {
	return c.(*middleware.AppContext).App.Data.Provider.Graph()
}

type datasetStatus struct {
	dataset.Snapshot
	Books            int  `json:"books"`
	Chapters         int  `json:"chapters"`
	Connections      int  `json:"connections"`
	TheographicReady bool `json:"theographic_ready"`
	TextReady        bool `json:"text_ready"`
	CrossRefs        int  `json:"crossrefs"`
}

func DatasetStatusHandler(c echo.Context) error {
	src := c.(*middleware.AppContext).App.Data
	s := src.Provider.Snapshot()
	res := datasetStatus{
		Snapshot:         s,
		TheographicReady: src.Theographic != nil && src.Theographic.Loaded(),
		TextReady:        src.Texts != nil && src.Texts.KJV != nil && src.Texts.KJV.Loaded(),
	}
	if set := src.CrossRefs(); set != nil {
		res.CrossRefs = len(set.Records)
	}
	if s.Graph != nil {
		res.Books = len(s.Graph.Books)
		res.Chapters = len(s.Graph.Chapters)
		res.Connections = len(s.Graph.Connections)
	}
	return c.JSON(http.StatusOK, res)
}

func GetBooksHandler(c echo.Context) error {
	g, err := currentGraph(c)
	if err != nil {
		return notLoaded(c, err)
	}
	return c.JSON(http.StatusOK, g.Books)
}

func GetChaptersHandler(c echo.Context) error {
	type getChaptersParams struct {
		Book string `query:"book"`
	}
	params := new(getChaptersParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	g, err := currentGraph(c)
	if err != nil {
		return notLoaded(c, err)
	}
	if params.Book == "" {
		return c.JSON(http.StatusOK, g.Chapters)
	}

	out := []dataset.Chapter{}
	for _, ch := range g.Chapters {
		if ch.Book == params.Book {
			out = append(out, ch)
		}
	}
	return c.JSON(http.StatusOK, out)
}

type connectionsPage struct {
	Total       int                  `json:"total"`
	Offset      int                  `json:"offset"`
	Limit       int                  `json:"limit"`
	Connections []dataset.Connection `json:"connections"`
}

func GetConnectionsHandler(c echo.Context) error {
	type getConnectionsParams struct {
		dataset.Filter
		Offset int `query:"offset" validate:"min=0"`
		Limit  int `query:"limit" validate:"min=0,max=5000"`
	}
	params := new(getConnectionsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if params.Limit == 0 {
		params.Limit = defaultConnectionsLimit
	}

	g, err := currentGraph(c)
	if err != nil {
		return notLoaded(c, err)
	}

	conns := g.Apply(params.Filter)
	page := connectionsPage{Total: len(conns), Offset: params.Offset, Limit: params.Limit}
	start := min(params.Offset, len(conns))
	end := min(start+params.Limit, len(conns))
	page.Connections = conns[start:end]
	return c.JSON(http.StatusOK, page)
}

// ReloadDatasetHandler reloads the full dataset on this instance and asks
// the other instances to do the same.
func ReloadDatasetHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)
	app := cc.App

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	report := func(int, string) {}
	if app.Hub != nil {
		report = app.Hub.Reporter("reload")
		report(5, "Reloading dataset...")
	}
	if err := app.Data.Reload(ctx); err != nil {
		if app.Hub != nil {
			app.Hub.Error("reload", err.Error())
		}
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	report(100, "Dataset reloaded")

	if app.Queue != nil {
		err := queue.PublishReload(app.Queue, queue.ReloadMsg{Instance: app.InstanceID, RequestedBy: cc.User.UserID})
		if err != nil {
			logger.Warn("[Server] Failed to announce reload", "err", err)
		}
	}

	return c.JSON(http.StatusOK, app.Data.Provider.Snapshot())
}
