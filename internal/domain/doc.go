// Package domain models demand-weighted degree-day data for the gas desk.
//
// # Data Source
//
// Daily mean temperatures originate from gridded NWP model output (GFS,
// ECMWF HRES, and the AI models AIFS/GraphCast/Pangu-Weather) reduced to a
// single CONUS figure per forecast day by the field aggregation layer. Each
// model run contributes one row per forecast date; rows accumulate in an
// append-only ledger keyed by (model, run_id, date).
//
// # Conventions
//
// Longitude:
//
//	All longitudes use the 0–360° convention. Western-hemisphere inputs in
//	−180..180 are normalized by adding 360 before any grid arithmetic, so
//	the CONUS box is lat 25–50, lon 235–295 everywhere.
//
// Run identifiers:
//
//	"YYYYMMDD_HH" in UTC, e.g. "20260115_06" = the 06z cycle of 15 Jan 2026.
//	The format sorts lexicographically in chronological order, which the
//	revision tracking relies on. Cycle hours are always two digits.
//
// Degree days:
//
//	HDD = max(base − meanTempF, 0)
//	CDD = max(meanTempF − base, 0)
//	with base 65.0°F unless configured otherwise. TDD, the column carried in
//	the ledger, is the heating-season figure: TDD = HDD of the daily mean.
//	Degree days are never negative.
//
// Rounding:
//
//	Stored degree-day and temperature values are rounded to one decimal.
//	Composite scores are rounded to two. Rounding happens once, at the
//	point a value is written to a ledger or report; intermediate arithmetic
//	stays at full precision.
//
// Gas-weighted columns:
//
//	mean_temp_gw / tdd_gw hold the demand-weighted variants. When an input
//	file predates the weighting grid the columns are absent; readers
//	backfill them from the simple columns and mark the record accordingly,
//	so downstream joins never see a zero standing in for "missing".
//
// Dates:
//
//	Forecast dates are calendar days in UTC, carried as time.Time at
//	midnight and serialized as "2006-01-02".
package domain
