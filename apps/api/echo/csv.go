package echoapi

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/csvimport"
)

const (
	csvFileField     = "file"
	csvMetadataField = "metadata"
)

var (
	csvMIMETypes = []string{"text/csv", "application/vnd.ms-excel", "application/csv", "text/plain"}

	errMissingFile     = core.NewValidationError(errors.New("a CSV file is required"), core.FieldError{Field: csvFileField, Error: "this field is required"})
	errInvalidMIMEType = core.NewValidationError(errors.New("the file must be a CSV spreadsheet"), core.FieldError{Field: csvFileField, Error: "unsupported file type"})
	errMissingMetadata = core.NewValidationError(errors.New("import metadata is required"), core.FieldError{Field: csvMetadataField, Error: "this field is required"})
	errInvalidMetadata = core.NewValidationError(errors.New("import metadata must be a JSON object"), core.FieldError{Field: csvMetadataField, Error: "invalid JSON"})
)

type importApi struct {
	svc csvimport.ServiceInterface
}

func registerImportAPI(g *echo.Group, session echo.MiddlewareFunc, svc csvimport.ServiceInterface) {
	api := importApi{svc: svc}

	cg := g.Group("/csv", session, adminMiddleware())
	cg.POST("/import", api.upload)
}

// upload expects a multipart form with a `file` part (the CSV) and a `metadata` part (JSON).
func (api *importApi) upload(ctx echo.Context) error {
	meta, err := readMetadata(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile(csvFileField)
	if err != nil {
		return errMissingFile
	}
	mediaType, _, err := mime.ParseMediaType(fh.Header.Get(echo.HeaderContentType))
	if err != nil || !stringIn(mediaType, csvMIMETypes) {
		return errInvalidMIMEType
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	report, err := api.svc.Import(ctx.Request().Context(), meta, file)
	if err != nil {
		return errors.Wrap(err, "importing csv")
	}
	return ctx.JSON(http.StatusOK, report)
}

// readMetadata accepts the metadata either as a form value or as a (JSON) file part.
func readMetadata(ctx echo.Context) (csvimport.Metadata, error) {
	var meta csvimport.Metadata

	raw := ctx.FormValue(csvMetadataField)
	if raw == "" {
		fh, err := ctx.FormFile(csvMetadataField)
		if err != nil {
			return meta, errMissingMetadata
		}
		part, err := fh.Open()
		if err != nil {
			return meta, errors.Wrap(err, "opening metadata part")
		}
		//goland:noinspection GoUnhandledErrorResult
		defer part.Close()
		data, err := io.ReadAll(part)
		if err != nil {
			return meta, errors.Wrap(err, "reading metadata part")
		}
		raw = string(data)
	}

	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return meta, errInvalidMetadata
	}
	return meta, nil
}

func stringIn(s string, list []string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
