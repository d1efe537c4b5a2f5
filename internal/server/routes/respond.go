package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ipif/internal/server/middleware"
	"ipif/pkg/query"
	"ipif/pkg/solr"
)

func app(c echo.Context) *middleware.App {
	return c.(*middleware.AppContext).App
}

// paramError renders unusable query parameters as a 400. Other errors
// pass through to the echo error handler.
func paramError(c echo.Context, err error) error {
	var perr *query.ParamError
	if errors.As(err, &perr) {
		return c.JSON(http.StatusBadRequest, map[string]string{"description": perr.Error()})
	}
	return err
}

// listResponse runs a parsed list query and renders the paginated result
// envelope, with the shaped documents under the given key.
func listResponse(c echo.Context, key string, lq query.ListQuery, shape func(map[string]any) map[string]any) error {
	res, err := app(c).Search.Search(c.Request().Context(), solr.Query{
		Filters: lq.Filters,
		Offset:  lq.Pagination.Offset(),
		Limit:   lq.Pagination.Size,
		Sort:    "doc_id asc",
	})
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	docs := make([]map[string]any, 0, len(res.Docs))
	for _, d := range res.Docs {
		docs = append(docs, shape(d))
	}
	// size reports the documents actually in this page, which falls
	// short of the requested size on the last page.
	return c.JSON(http.StatusOK, map[string]any{
		"protocol": map[string]any{
			"size":      len(docs),
			"totalHits": res.NumFound,
			"page":      lq.Pagination.Page,
		},
		key: docs,
	})
}

// singleResponse fetches one document by filter and renders it, or a 404
// naming the missing kind.
func singleResponse(c echo.Context, kind string, filter solr.Expr, shape func(map[string]any) map[string]any) error {
	res, err := app(c).Search.Search(c.Request().Context(), solr.Query{
		Filters: []solr.Expr{filter},
		Limit:   1,
	})
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if len(res.Docs) == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"description": "the " + kind + " does not exist"})
	}
	return c.JSON(http.StatusOK, shape(res.Docs[0]))
}
