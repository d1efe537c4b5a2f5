package routes

import (
	"github.com/labstack/echo/v4"

	"ipif/pkg/index"
	"ipif/pkg/query"
)

func GetPersonsHandler(c echo.Context) error {
	lq, err := query.Persons(c.QueryParam)
	if err != nil {
		return paramError(c, err)
	}
	return listResponse(c, "persons", lq, index.ShapePerson)
}

// GetPersonHandler resolves a person by id or by any of its registered
// URIs, so upstream identifiers keep working as lookup keys.
func GetPersonHandler(c echo.Context) error {
	id := c.Param("id")
	return singleResponse(c, "person", query.PersonIDFilter(id), index.ShapePerson)
}
