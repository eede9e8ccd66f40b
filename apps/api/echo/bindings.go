package echoapi

import (
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core/project"
)

// ProjectForm is the body of a submission or resubmission,
// sent as multipart/form-data (with an optional "file" part) or JSON.
type ProjectForm struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Version     int    `json:"version" form:"version"`
}

// bindProject binds the form fields and the optional attachment.
// The returned release func must be called once the upload was consumed.
func bindProject(ctx echo.Context) (ProjectForm, *project.Upload, func(), error) {
	var data ProjectForm
	if err := ctx.Bind(&data); err != nil {
		return data, nil, nil, errors.Wrap(err, "binding to ProjectForm")
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return data, nil, func() {}, nil
		}
		return data, nil, nil, errors.Wrap(err, "reading file part")
	}
	upload, release, err := openUpload(fh)
	return data, upload, release, err
}

func openUpload(fh *multipart.FileHeader) (*project.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening file part")
	}
	return &project.Upload{Filename: fh.Filename, Content: f}, func() { _ = f.Close() }, nil
}
