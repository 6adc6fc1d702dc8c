package market

import "time"

// Session times are evaluated in US Eastern wall-clock time.
// Fall back to fixed EST if the tz database is unavailable.
var eastern = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}()

const (
	stockOpenMinute  = 9*60 + 30 // 09:30
	stockCloseMinute = 16 * 60   // 16:00
)

// IsOpen reports whether the class trades at the given wall-clock time.
// Crypto is always open. Forex is open Monday through Friday. Stocks
// are open Monday through Friday within the regular session window.
// Holidays are not modeled.
func (c Class) IsOpen(at time.Time) bool {
	switch c {
	case Crypto:
		return true
	case Forex:
		return isWeekday(at.In(eastern))
	default:
		et := at.In(eastern)
		if !isWeekday(et) {
			return false
		}
		minute := et.Hour()*60 + et.Minute()
		return minute >= stockOpenMinute && minute <= stockCloseMinute
	}
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
