package workflow

import (
	"context"
	"errors"
	"strconv"

	"github.com/johnrirwin/bizregistry/internal/geo"
	"github.com/johnrirwin/bizregistry/internal/logging"
)

const (
	LoginRoute        = "/login"
	MyBusinessesRoute = "/mis-negocios"
)

// DetailRoute is the private detail page of a business.
func DetailRoute(id int64) string {
	return "/detalle-negocio/" + strconv.FormatInt(id, 10)
}

// Router moves the user to another screen.
type Router interface {
	Navigate(ctx context.Context, route string)
}

// LogRouter records navigation in the log. Used where there is no UI.
type LogRouter struct {
	logger *logging.Logger
}

// NewLogRouter creates a router that only logs.
func NewLogRouter(logger *logging.Logger) *LogRouter {
	return &LogRouter{logger: logger}
}

func (r *LogRouter) Navigate(ctx context.Context, route string) {
	r.logger.Info("Navigate", logging.WithField("route", route))
}

// ErrLocationCanceled is returned by a LocationPicker the user dismissed.
var ErrLocationCanceled = errors.New("location selection canceled")

// LocationPicker asks the user to confirm a point on a map, starting at
// current.
type LocationPicker interface {
	Pick(ctx context.Context, current geo.Coordinates) (lat, lng float64, err error)
}
