// Package units converts between the field units used across the
// portal: tonnes and quintals for mass, millimetres of water depth and
// cubic metres for irrigation volumes.
package units

const (
	// QuintalsPerTonne is the metric quintal conversion used by mandi
	// price quotes.
	QuintalsPerTonne = 10.0

	// M3PerHaPerMm is the volume of one millimetre of water depth
	// spread over one hectare.
	M3PerHaPerMm = 10.0

	// HectaresPerAcre converts the acreage farmers commonly report.
	HectaresPerAcre = 0.404686
)

// TonnesToQuintals converts harvest mass to price-quote units.
func TonnesToQuintals(t float64) float64 { return t * QuintalsPerTonne }

// QuintalsToTonnes converts price-quote units back to tonnes.
func QuintalsToTonnes(q float64) float64 { return q / QuintalsPerTonne }

// DepthToVolumeM3 converts a water depth in mm over an area in
// hectares to cubic metres.
func DepthToVolumeM3(depthMm, areaHa float64) float64 {
	return depthMm * M3PerHaPerMm * areaHa
}

// VolumeToDepthMm converts cubic metres over an area in hectares back
// to a depth in mm. A zero area has no meaningful depth.
func VolumeToDepthMm(volumeM3, areaHa float64) float64 {
	if areaHa == 0 {
		return 0
	}
	return volumeM3 / M3PerHaPerMm / areaHa
}

// AcresToHectares converts reported acreage.
func AcresToHectares(acres float64) float64 { return acres * HectaresPerAcre }

// HectaresToAcres converts back to acres.
func HectaresToAcres(ha float64) float64 { return ha / HectaresPerAcre }
