package services

import (
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCityCenter is used for districts without a known reference point.
var DefaultCityCenter = [2]float64{41.3111, 69.2797}

// DistrictCenters are the reference coordinates of Tashkent districts.
var DistrictCenters = map[string][2]float64{
	"yunusabad":     {41.3650, 69.2890},
	"chilonzor":     {41.2850, 69.2030},
	"mirzo ulugbek": {41.3250, 69.3450},
	"sergeli":       {41.2300, 69.2280},
	"shaykhontohur": {41.3250, 69.2450},
	"olmazor":       {41.3560, 69.2320},
	"yakkasaroy":    {41.2940, 69.2550},
	"bektemir":      {41.2360, 69.3350},
}

const earthRadiusM = 6371000.0

// CenterFor returns the reference point of district.
func CenterFor(district string) [2]float64 {
	if c, ok := DistrictCenters[normalizeDistrict(district)]; ok {
		return c
	}
	return DefaultCityCenter
}

// OffsetCoordinates moves origin by distanceM metres along bearingDeg (0 = north, clockwise).
func OffsetCoordinates(origin [2]float64, bearingDeg, distanceM float64) [2]float64 {
	lat1 := origin[0] * math.Pi / 180
	lon1 := origin[1] * math.Pi / 180
	brng := bearingDeg * math.Pi / 180
	d := distanceM / earthRadiusM

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))

	return [2]float64{lat2 * 180 / math.Pi, lon2 * 180 / math.Pi}
}

// HaversineMeters is the great-circle distance between a and b.
func HaversineMeters(a, b [2]float64) float64 {
	lat1, lat2 := a[0]*math.Pi/180, b[0]*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b[1] - a[1]) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// TitleDistrict renders a district key for display ("mirzo ulugbek" -> "Mirzo Ulugbek").
func TitleDistrict(district string) string {
	return cases.Title(language.English).String(normalizeDistrict(district))
}
