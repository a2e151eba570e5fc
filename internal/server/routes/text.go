package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ringmast4r/project147/internal/server/middleware"
	"github.com/ringmast4r/project147/pkg/crossref"
	"github.com/ringmast4r/project147/pkg/text"
)

func GetVerseHandler(c echo.Context) error {
	type getVerseParams struct {
		Ref string `param:"ref" validate:"required"`
	}
	params := new(getVerseParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	lib := c.(*middleware.AppContext).App.Data.Texts
	if lib == nil {
		return notLoaded(c, text.ErrNotLoaded)
	}
	res := lib.Resolve(c.Request().Context(), params.Ref)
	if res.Text == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Verse not found"})
	}
	return c.JSON(http.StatusOK, res)
}

func GetChapterVersesHandler(c echo.Context) error {
	type getChapterVersesParams struct {
		Book    string `param:"book" validate:"required"`
		Chapter int    `param:"chapter" validate:"required,min=1"`
	}
	params := new(getChapterVersesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	lib := c.(*middleware.AppContext).App.Data.Texts
	if lib == nil {
		return notLoaded(c, text.ErrNotLoaded)
	}
	verses, err := lib.Chapter(params.Book, params.Chapter)
	if errors.Is(err, text.ErrNotLoaded) {
		return notLoaded(c, err)
	}
	if err != nil || len(verses) == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Chapter not found"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"book":    params.Book,
		"chapter": params.Chapter,
		"verses":  verses,
	})
}

// GetCrossRefsHandler searches cross-references by verse, or lists the
// highest voted ones.
func GetCrossRefsHandler(c echo.Context) error {
	type getCrossRefsParams struct {
		Verse string `query:"verse"`
		Top   int    `query:"top" validate:"min=0,max=1000"`
	}
	params := new(getCrossRefsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	set := c.(*middleware.AppContext).App.Data.CrossRefs()
	if set == nil || set.Enricher == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "cross-references not loaded"})
	}

	var res []crossref.Enriched
	if params.Verse != "" {
		res = set.Enricher.SearchByVerse(params.Verse)
	} else {
		res = set.Enricher.Top(params.Top)
	}
	if res == nil {
		res = []crossref.Enriched{}
	}
	return c.JSON(http.StatusOK, res)
}
