package echoapi

import (
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type documentApi struct {
	docs Documents
}

func registerDocumentAPI(g *echo.Group, session echo.MiddlewareFunc, docs Documents) {
	api := documentApi{docs: docs}

	dg := g.Group("/pdfs", session, adminMiddleware())
	dg.GET("", api.list)
	dg.GET("/:name", api.download)
}

func (api *documentApi) list(ctx echo.Context) error {
	files, err := api.docs.List()
	if err != nil {
		return errors.Wrap(err, "listing documents")
	}
	return listJSON(ctx, files)
}

func (api *documentApi) download(ctx echo.Context) error {
	name, err := url.PathUnescape(ctx.Param("name"))
	if err != nil {
		return errHttpNotFound
	}
	path, err := api.docs.Path(name)
	if err != nil {
		return err
	}
	return ctx.Attachment(path, name)
}
