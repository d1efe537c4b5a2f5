package routes

import (
	"github.com/labstack/echo/v4"

	"ipif/pkg/index"
	"ipif/pkg/query"
)

func GetSourcesHandler(c echo.Context) error {
	lq, err := query.Sources(c.QueryParam)
	if err != nil {
		return paramError(c, err)
	}
	return listResponse(c, "sources", lq, index.ShapeSource)
}

func GetSourceHandler(c echo.Context) error {
	id := c.Param("id")
	return singleResponse(c, "source", query.DocIDFilter(index.TypeSource, id), index.ShapeSource)
}
