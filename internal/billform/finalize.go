package billform

import (
	"math"
	"strconv"
	"time"

	"github.com/codalotl/streamfill/internal/partialjson"
)

// Finalize repairs a complete answer in place and returns the names of the fields it changed, in the order it changed them.
//
//   - An expense or income bill whose catename is missing or not in that type's list gets CategoryOther.
//   - A missing or empty time becomes now, formatted with TimeLayout.
//   - A time that isn't exactly TimeLayout is reparsed: "HH:mm" times on the right date gain ":00"; otherwise any layout in repairLayouts is accepted and reformatted with zero
//     seconds; failing that, now is used with zero seconds.
//
// Times are interpreted in now's location.
func Finalize(obj *partialjson.Object, now time.Time) []string {
	var changed []string

	billType := stringField(obj, FieldType)
	if _, ok := categories[billType]; ok {
		if !ValidCategory(billType, stringField(obj, FieldCategory)) {
			obj.Set(FieldCategory, partialjson.String(CategoryOther))
			changed = append(changed, FieldCategory)
		}
	}

	raw := stringField(obj, FieldTime)
	if fixed := RepairTime(raw, now); fixed != raw {
		obj.Set(FieldTime, partialjson.String(fixed))
		changed = append(changed, FieldTime)
	}

	return changed
}

// repairLayouts are the non-canonical time layouts accepted by RepairTime, tried in order.
var repairLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006/1/2 15:04",
	"2006-01-02",
	"2006/01/02",
}

// RepairTime returns s if it is a valid TimeLayout time, and otherwise a best-effort TimeLayout rendering of it (see Finalize). An empty s yields now.
func RepairTime(s string, now time.Time) string {
	if s == "" {
		return now.Format(TimeLayout)
	}
	loc := now.Location()
	if len(s) == len(TimeLayout) {
		if _, err := time.ParseInLocation(TimeLayout, s, loc); err == nil {
			return s
		}
	}
	if len(s) == len(timeLayoutMinutes) {
		if t, err := time.ParseInLocation(timeLayoutMinutes, s, loc); err == nil {
			return t.Format(TimeLayout)
		}
	}
	for _, layout := range repairLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.Truncate(time.Minute).Format(TimeLayout)
		}
	}
	return now.Truncate(time.Minute).Format(TimeLayout)
}

// FormatValue renders a decoded field value as preview text: strings verbatim, numbers in their shortest decimal form, null and non-finite numbers as "", and anything else as compact JSON.
func FormatValue(v partialjson.Value) string {
	switch v.Kind() {
	case partialjson.KindNull:
		return ""
	case partialjson.KindString:
		s, _ := v.Str()
		return s
	case partialjson.KindNumber:
		n, _ := v.Number()
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return ""
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	case partialjson.KindBool:
		b, _ := v.Bool()
		return strconv.FormatBool(b)
	default:
		return v.String()
	}
}

func stringField(obj *partialjson.Object, key string) string {
	v, ok := obj.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.Str()
	return s
}
