// Package webui embeds the static dashboard served at the site root.
package webui

import (
	"embed"

	"github.com/labstack/echo/v4"
)

//go:embed public
var public embed.FS

// PublicFS is the dashboard file system rooted at public/.
var PublicFS = echo.MustSubFS(public, "public")
