package domain

// Temperature units accepted in field envelopes.
const (
	UnitKelvin     = "kelvin"
	UnitCelsius    = "celsius"
	UnitFahrenheit = "fahrenheit"
)

// KelvinToF converts a temperature from Kelvin to Fahrenheit.
func KelvinToF(k float64) float64 {
	return (k-273.15)*9/5 + 32
}

// CelsiusToF converts a temperature from Celsius to Fahrenheit.
func CelsiusToF(c float64) float64 {
	return c*9/5 + 32
}

// ToFahrenheit converts a value in the named unit to Fahrenheit.
// Unknown units are passed through unchanged.
func ToFahrenheit(v float64, unit string) float64 {
	switch unit {
	case UnitKelvin:
		return KelvinToF(v)
	case UnitCelsius:
		return CelsiusToF(v)
	default:
		return v
	}
}

// KmhToMS converts a wind speed from km/h to m/s.
func KmhToMS(kmh float64) float64 {
	return kmh * 0.277778
}
