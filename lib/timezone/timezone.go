package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
}

// force timezone to new york because the calendar site renders its
// day boundaries in US eastern time, so scrape timestamps taken on
// servers in other regions would otherwise drift across day boundaries
func Now() time.Time {
	return time.Now().In(Location)
}
