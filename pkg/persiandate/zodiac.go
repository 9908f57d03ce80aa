package persiandate

import "time"

type zodiacRange struct {
	month time.Month
	day   int
	sign  string
}

// Upper bounds per sign: a date on or before the listed month/day
// belongs to that sign.
var zodiacRanges = []zodiacRange{
	{time.January, 19, "♑ Capricorn"},
	{time.February, 18, "♒ Aquarius"},
	{time.March, 20, "♓ Pisces"},
	{time.April, 19, "♈ Aries"},
	{time.May, 20, "♉ Taurus"},
	{time.June, 20, "♊ Gemini"},
	{time.July, 22, "♋ Cancer"},
	{time.August, 22, "♌ Leo"},
	{time.September, 22, "♍ Virgo"},
	{time.October, 22, "♎ Libra"},
	{time.November, 21, "♏ Scorpio"},
	{time.December, 21, "♐ Sagittarius"},
	{time.December, 31, "♑ Capricorn"},
}

// ZodiacSign maps a Gregorian date to its Western zodiac sign. Display
// only; nothing derived from it is stored.
func ZodiacSign(date time.Time) string {
	for _, zr := range zodiacRanges {
		if date.Month() < zr.month || (date.Month() == zr.month && date.Day() <= zr.day) {
			return zr.sign
		}
	}
	return zodiacRanges[len(zodiacRanges)-1].sign
}
