package ntv

import "github.com/tidwall/gjson"

// newRating maps an upstream rating object {"k": <code>, "v": <label>} to a
// normalized Rating. k <= 0 forces the "0+" label regardless of v, any k
// outside the documented 0..4 range yields an empty MPAA equivalent.
func newRating(rating gjson.Result) Rating {
	rars := rating.Get("v").String()
	var mpaa string
	switch k := rating.Get("k").Int(); {
	case k <= 0:
		rars = "0+"
		mpaa = "G"
	case k == 1:
		mpaa = "PG"
	case k == 2:
		mpaa = "PG-13"
	case k == 3:
		mpaa = "R"
	case k == 4:
		mpaa = "NC-17"
	}
	return Rating{RARS: rars, MPAA: mpaa}
}
