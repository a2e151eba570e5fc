package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ringmast4r/project147/internal/server/middleware"
	"github.com/ringmast4r/project147/pkg/chart"
	"github.com/ringmast4r/project147/pkg/theographic"
)

func loadedTheographic(c echo.Context) *theographic.Loader {
	t := c.(*middleware.AppContext).App.Data.Theographic
	if t == nil || !t.Loaded() {
		return nil
	}
	return t
}

func GetTheographicStatsHandler(c echo.Context) error {
	t := loadedTheographic(c)
	if t == nil {
		return notLoaded(c, chart.ErrTheographicNotLoaded)
	}
	return c.JSON(http.StatusOK, t.Stats())
}

func SearchTheographicHandler(c echo.Context) error {
	type searchParams struct {
		Kind string `param:"kind" validate:"required,oneof=person place event"`
		Name string `query:"name" validate:"required"`
	}
	params := new(searchParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	t := loadedTheographic(c)
	if t == nil {
		return notLoaded(c, chart.ErrTheographicNotLoaded)
	}

	var (
		res   any
		found bool
	)
	switch params.Kind {
	case "person":
		res, found = t.SearchPerson(params.Name)
	case "place":
		res, found = t.SearchPlace(params.Name)
	case "event":
		res, found = t.SearchEvent(params.Name)
	}
	if !found {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No " + params.Kind + " matches " + params.Name})
	}
	return c.JSON(http.StatusOK, res)
}
