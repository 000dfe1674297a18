// internal/api/static.go
package api

import (
	"embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed web
var webFS embed.FS

func registerStatic(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		page, err := webFS.ReadFile("web/index.html")
		if err != nil {
			return err
		}
		return c.HTMLBlob(http.StatusOK, page)
	})
	e.StaticFS("/static", echo.MustSubFS(webFS, "web/static"))
}
