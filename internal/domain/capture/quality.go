package capture

import "strings"

// QualityLevel is a named point on the encoder's rate/speed trade-off curve.
type QualityLevel string

const (
	QualityLow      QualityLevel = "low"
	QualityMedium   QualityLevel = "medium"
	QualityHigh     QualityLevel = "high"
	QualityLossless QualityLevel = "lossless"
)

// QualityParams are the concrete encoder parameters for a QualityLevel.
// Lower CRF means higher visual quality; CRF 0 disables lossy compression.
type QualityParams struct {
	CRF    int    `json:"crf"`
	Preset string `json:"preset"`
}

var qualityTable = map[QualityLevel]QualityParams{
	QualityLow:      {CRF: 28, Preset: "ultrafast"},
	QualityMedium:   {CRF: 23, Preset: "medium"},
	QualityHigh:     {CRF: 18, Preset: "slow"},
	QualityLossless: {CRF: 0, Preset: "medium"},
}

// ResolveQuality maps any label to encoder parameters. Matching is
// case-insensitive; anything not in the table (including "") resolves to the
// medium entry, so callers always get renderable parameters.
func ResolveQuality(label string) QualityParams {
	if p, ok := qualityTable[QualityLevel(strings.ToLower(strings.TrimSpace(label)))]; ok {
		return p
	}
	return qualityTable[QualityMedium]
}

// Params resolves q through ResolveQuality.
func (q QualityLevel) Params() QualityParams { return ResolveQuality(string(q)) }

// Known reports whether q names a table entry.
func (q QualityLevel) Known() bool {
	_, ok := qualityTable[QualityLevel(strings.ToLower(string(q)))]
	return ok
}

// QualityLevels lists the table entries from fastest to highest fidelity.
func QualityLevels() []QualityLevel {
	return []QualityLevel{QualityLow, QualityMedium, QualityHigh, QualityLossless}
}
