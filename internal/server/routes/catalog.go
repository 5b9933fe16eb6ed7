package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/dramatis/internal/server/middleware"
	"github.com/OFFIS-RIT/dramatis/pkg/catalog"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/projection"

	"github.com/labstack/echo/v4"
)

type kindParams struct {
	Kind string `param:"kind" validate:"required"`
}

type recordParams struct {
	Kind string `param:"kind" validate:"required"`
	ID   string `param:"id" validate:"required,max=64"`
}

type errorResponse struct {
	Message string             `json:"message"`
	Errors  common.FieldErrors `json:"errors,omitempty"`
}

// rejectedResponse echoes the submitted fields next to the errors.
type rejectedResponse struct {
	Submitted projection.EditView
	Message   string
	Errors    common.FieldErrors
}

func (r rejectedResponse) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(r.Submitted)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	out["message"] = r.Message
	out["errors"] = r.Errors
	return json.Marshal(out)
}

func fail(status int, message string) error {
	return echo.NewHTTPError(status, errorResponse{Message: message})
}

func bindKind(c echo.Context) (common.Kind, error) {
	params := new(kindParams)
	if err := (&echo.DefaultBinder{}).BindPathParams(c, params); err != nil {
		return "", fail(http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return "", fail(http.StatusBadRequest, "Invalid request params")
	}
	kind, ok := common.ParseKind(params.Kind)
	if !ok {
		return "", fail(http.StatusNotFound, "Unknown kind")
	}
	return kind, nil
}

func bindRecord(c echo.Context) (common.Kind, string, error) {
	params := new(recordParams)
	if err := (&echo.DefaultBinder{}).BindPathParams(c, params); err != nil {
		return "", "", fail(http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return "", "", fail(http.StatusBadRequest, "Invalid request params")
	}
	kind, ok := common.ParseKind(params.Kind)
	if !ok {
		return "", "", fail(http.StatusNotFound, "Unknown kind")
	}
	return kind, params.ID, nil
}

func bindPayload(c echo.Context, kind common.Kind) (common.Payload, error) {
	p, err := common.NewPayload(kind)
	if err != nil {
		return nil, fail(http.StatusNotFound, "Unknown kind")
	}
	if err := c.Bind(p); err != nil {
		return nil, fail(http.StatusBadRequest, "Invalid request body")
	}
	return p, nil
}

// respondError maps the catalog error taxonomy onto HTTP responses.
func respondError(c echo.Context, err error) error {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if _, ok := verr.Errors[catalog.KeyAssociations]; ok {
			status = http.StatusConflict
		}
		return c.JSON(status, errorResponse{Message: "Validation failed", Errors: verr.Errors})
	case errors.Is(err, catalog.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Message: "Not found"})
	}
	return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
}

// respondWriteError is respondError for create and update, which keep the
// submitted fields on validation failure.
func respondWriteError(c echo.Context, submitted projection.EditView, err error) error {
	var verr *catalog.ValidationError
	if errors.As(err, &verr) && submitted.Payload != nil {
		return c.JSON(http.StatusBadRequest, rejectedResponse{
			Submitted: submitted,
			Message:   "Validation failed",
			Errors:    verr.Errors,
		})
	}
	return respondError(c, err)
}

func service(c echo.Context) *catalog.Service {
	return c.(*middleware.AppContext).App.Catalog
}

func ListHandler(c echo.Context) error {
	kind, err := bindKind(c)
	if err != nil {
		return err
	}
	res, err := service(c).List(c.Request().Context(), kind)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func CreateHandler(c echo.Context) error {
	kind, err := bindKind(c)
	if err != nil {
		return err
	}
	p, err := bindPayload(c, kind)
	if err != nil {
		return err
	}
	res, err := service(c).Create(c.Request().Context(), kind, p)
	if err != nil {
		return respondWriteError(c, res, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func ShowHandler(c echo.Context) error {
	kind, id, err := bindRecord(c)
	if err != nil {
		return err
	}
	res, err := service(c).Show(c.Request().Context(), kind, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func EditHandler(c echo.Context) error {
	kind, id, err := bindRecord(c)
	if err != nil {
		return err
	}
	res, err := service(c).Edit(c.Request().Context(), kind, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func UpdateHandler(c echo.Context) error {
	kind, id, err := bindRecord(c)
	if err != nil {
		return err
	}
	p, err := bindPayload(c, kind)
	if err != nil {
		return err
	}
	res, err := service(c).Update(c.Request().Context(), kind, id, p)
	if err != nil {
		return respondWriteError(c, res, err)
	}
	return c.JSON(http.StatusOK, res)
}

func DestroyHandler(c echo.Context) error {
	kind, id, err := bindRecord(c)
	if err != nil {
		return err
	}
	res, err := service(c).Destroy(c.Request().Context(), kind, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
