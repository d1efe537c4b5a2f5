package routes

import (
	"github.com/labstack/echo/v4"

	"ipif/pkg/index"
	"ipif/pkg/query"
)

func GetStatementsHandler(c echo.Context) error {
	lq, err := query.Statements(c.QueryParam)
	if err != nil {
		return paramError(c, err)
	}
	return listResponse(c, "statements", lq, index.ShapeStatement)
}

func GetStatementHandler(c echo.Context) error {
	id := c.Param("id")
	return singleResponse(c, "statement", query.DocIDFilter(index.TypeStatement, id), index.ShapeStatement)
}
