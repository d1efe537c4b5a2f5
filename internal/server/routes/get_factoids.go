package routes

import (
	"github.com/labstack/echo/v4"

	"ipif/pkg/index"
	"ipif/pkg/query"
)

func GetFactoidsHandler(c echo.Context) error {
	lq, err := query.Factoids(c.QueryParam)
	if err != nil {
		return paramError(c, err)
	}
	return listResponse(c, "factoids", lq, index.ShapeFactoid)
}

func GetFactoidHandler(c echo.Context) error {
	id := c.Param("id")
	return singleResponse(c, "factoid", query.DocIDFilter(index.TypeFactoid, id), index.ShapeFactoid)
}
