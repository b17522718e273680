package api

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// JSONSerializer implements echo.JSONSerializer with sonic.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (JSONSerializer) Deserialize(c echo.Context, i any) error {
	if err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	return nil
}
