package device

import "math"

// Valid Celsius setpoint range (spec section 4.5).
const (
	minSetpointCelsius = 8
	maxSetpointCelsius = 30

	minFahrenheitTable = -76
	maxFahrenheitTable = 140
)

type tempEntry struct {
	f      int
	temSet int
	temRec int
}

var (
	temperatureTable []tempEntry
	minTableCelsius  int
	maxTableCelsius  int
)

func init() {
	temperatureTable = make([]tempEntry, 0, maxFahrenheitTable-minFahrenheitTable+1)
	for f := minFahrenheitTable; f <= maxFahrenheitTable; f++ {
		temSet, temRec := fahrenheitToCelsiusRaw(f)
		temperatureTable = append(temperatureTable, tempEntry{f: f, temSet: temSet, temRec: temRec})
	}
	minTableCelsius = temperatureTable[0].temSet
	maxTableCelsius = temperatureTable[0].temSet
	for _, e := range temperatureTable {
		if e.temSet < minTableCelsius {
			minTableCelsius = e.temSet
		}
		if e.temSet > maxTableCelsius {
			maxTableCelsius = e.temSet
		}
	}
}

// fahrenheitToCelsiusRaw computes the (temSet, temRec) pair for a
// Fahrenheit value directly from the formula in spec section 4.5,
// without consulting the table (used both to build the table and to
// convert a caller-supplied Fahrenheit setpoint).
func fahrenheitToCelsiusRaw(f int) (temSet, temRec int) {
	exact := float64(f-32) * 5.0 / 9.0
	temSet = int(math.Round(exact))
	if exact-float64(temSet) > 0 {
		temRec = 1
	}
	return temSet, temRec
}

// FahrenheitToCelsius converts a Fahrenheit setpoint to its (temSet,
// temRec) representation.
func FahrenheitToCelsius(f int) (temSet, temRec int) {
	return fahrenheitToCelsiusRaw(f)
}

// CelsiusToFahrenheit finds the Fahrenheit value whose table entry
// matches temSet and temRec exactly; if no exact temRec match exists, it
// falls back to the first entry matching temSet (spec section 4.5).
func CelsiusToFahrenheit(temSet, temRec int) int {
	fallback := -1
	for _, e := range temperatureTable {
		if e.temSet != temSet {
			continue
		}
		if fallback == -1 {
			fallback = e.f
		}
		if e.temRec == temRec {
			return e.f
		}
	}
	if fallback != -1 {
		return fallback
	}
	return temSet*9/5 + 32
}

// clampToTableCelsius clamps a raw Celsius sensor value to the range the
// temperature table covers, per spec section 4.5's "sensor values outside
// the table range are clamped to the nearest in-range Celsius."
func clampToTableCelsius(c int) int {
	if c < minTableCelsius {
		return minTableCelsius
	}
	if c > maxTableCelsius {
		return maxTableCelsius
	}
	return c
}
