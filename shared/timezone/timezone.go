package timezone

import (
	"reservo/config"
	"reservo/shared/constant"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultZone is used when APP_TIMEZONE is empty.
const DefaultZone = "Asia/Ho_Chi_Minh"

var appLocation = time.UTC

func init() {
	zone := config.Get().App.Timezone
	if zone == "" {
		zone = DefaultZone
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		log.Error().
			Err(err).
			Str("timezone", zone).
			Msg("Failed to load timezone, falling back to UTC. Use IANA names like 'Asia/Ho_Chi_Minh' or 'UTC'")

		return
	}

	appLocation = loc
}

// Now returns the current time in the restaurant's timezone.
func Now() time.Time {
	return time.Now().In(appLocation)
}

func ToAppTime(t time.Time) time.Time {
	return t.In(appLocation)
}

func GetLocation() *time.Location {
	return appLocation
}

// Parse reads value as a wall clock time in the restaurant's timezone.
func Parse(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, appLocation)
}

func Format(t time.Time, layout string) string {
	return ToAppTime(t).Format(layout)
}

// Date returns the calendar day of t at the restaurant, as YYYY-MM-DD.
func Date(t time.Time) string {
	return Format(t, constant.DateOnlyLayout)
}

// Today is Date(Now()).
func Today() string {
	return Date(Now())
}

// ParseDate reads a YYYY-MM-DD day as midnight at the restaurant.
func ParseDate(date string) (time.Time, error) {
	return Parse(constant.DateOnlyLayout, date)
}
