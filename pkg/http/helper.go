package http

import (
	"net/http"
	"strconv"
	"time"

	apperrors "reservations/pkg/errors"
	"reservations/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// ExtractID parses a positive integer path parameter.
func ExtractID(ps httprouter.Params, name string) (int64, error) {
	s := ps.ByName(name)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return id, nil
}

// ExtractInterval reads the start and end query parameters in the boundary
// timestamp format. It does not check ordering; callers validate the interval.
func ExtractInterval(r *http.Request, loc *time.Location) (model.Interval, error) {
	query := r.URL.Query()
	startStr, endStr := query.Get("start"), query.Get("end")
	if startStr == "" || endStr == "" {
		return model.Interval{}, apperrors.InvalidInput("both 'start' and 'end' query parameters are required")
	}

	start, err := model.ParseTimestamp(startStr, loc)
	if err != nil {
		return model.Interval{}, apperrors.InvalidInput("invalid start format, must be " + model.TimestampLayout)
	}
	end, err := model.ParseTimestamp(endStr, loc)
	if err != nil {
		return model.Interval{}, apperrors.InvalidInput("invalid end format, must be " + model.TimestampLayout)
	}
	return model.Interval{Start: start, End: end}, nil
}
