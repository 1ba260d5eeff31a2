// Package taxonomy holds the shared alias, keyword and price-band tables
// consumed by both the processing pipeline and the matching engine. Keeping
// them in one place guarantees the standardize stage and the matcher agree.
package taxonomy

import (
	"strings"
)

// Defaults applied when no keyword matches.
const (
	DefaultCategory  = "rifle"
	DefaultPowerType = "aeg"
	DefaultPlatform  = "other"
)

// brandAliases maps scraped brand spellings to canonical brand names.
// Keys are matched case-insensitively.
var brandAliases = map[string]string{
	"vfc":          "Elite Force",
	"vega force":   "Elite Force",
	"elite force":  "Elite Force",
	"umarex":       "Elite Force",
	"tm":           "Tokyo Marui",
	"tokyo marui":  "Tokyo Marui",
	"marui":        "Tokyo Marui",
	"g&g":          "G&G",
	"g&g armament": "G&G",
	"krytac":       "Krytac",
	"cyma":         "CYMA",
	"lct":          "LCT",
	"e&l":          "E&L",
	"asg":          "ASG",
	"ics":          "ICS",
	"we":           "WE",
	"we tech":      "WE",
	"we-tech":      "WE",
	"ghk":          "GHK",
	"classic army": "Classic Army",
	"king arms":    "King Arms",
	"ares":         "Ares",
	"specna":       "Specna Arms",
	"specna arms":  "Specna Arms",
}

// CanonicalBrand returns the canonical spelling for a scraped brand string.
// Unknown brands are returned trimmed but otherwise untouched.
func CanonicalBrand(brand string) string {
	key := strings.ToLower(strings.TrimSpace(brand))
	if canonical, ok := brandAliases[key]; ok {
		return canonical
	}
	return strings.TrimSpace(brand)
}

// stopTerms are filler terms stripped from listing names before matching.
var stopTerms = []string{
	"officially licensed",
	"fully licensed",
	"airsoft",
	"gun",
	"rifle",
	"pistol",
	"full metal",
	"package",
	"combo",
	"edition",
}

// StopTerms returns the stop-term list in priority order.
func StopTerms() []string {
	return stopTerms
}

// keywordRule resolves a value from the first matching keyword.
type keywordRule struct {
	keyword string
	value   string
}

// Platform keywords in priority order; first match wins.
var platformRules = []keywordRule{
	{"hi-capa", "hi-capa"},
	{"hi capa", "hi-capa"},
	{"hicapa", "hi-capa"},
	{"glock", "glock"},
	{"g17", "glock"},
	{"g18", "glock"},
	{"g19", "glock"},
	{"1911", "m1911"},
	{"m1911", "m1911"},
	{"mp5", "mp5"},
	{"mp7", "mp7"},
	{"scar", "scar"},
	{"ak-", "ak"},
	{"ak47", "ak"},
	{"ak74", "ak"},
	{"akm", "ak"},
	{" ak ", "ak"},
	{"m4", "m4"},
	{"m16", "m4"},
	{"ar-15", "m4"},
	{"ar15", "m4"},
	{"hk416", "m4"},
	{"416", "m4"},
	{"g36", "g36"},
	{"famas", "famas"},
	{"aug", "aug"},
	{"kriss", "vector"},
	{"vector", "vector"},
	{"p90", "p90"},
	{"vsr", "vsr"},
	{"m24", "m24"},
	{"l96", "l96"},
}

// Power-type keywords in priority order.
var powerTypeRules = []keywordRule{
	{"gbbr", "gbbr"},
	{"gas blowback rifle", "gbbr"},
	{"gbb pistol", "gbb_pistol"},
	{"gas pistol", "gbb_pistol"},
	{"gas blowback pistol", "gbb_pistol"},
	{"gbb", "gbbr"},
	{"hpa", "hpa"},
	{"polarstar", "hpa"},
	{"co2", "co2"},
	{"spring", "spring"},
	{"bolt action", "spring"},
	{"aep", "aep"},
	{"aeg", "aeg"},
	{"electric", "aeg"},
}

// Category keywords in priority order.
var categoryRules = []keywordRule{
	{"sniper", "sniper"},
	{"bolt action", "sniper"},
	{"dmr", "sniper"},
	{"shotgun", "shotgun"},
	{"lmg", "lmg"},
	{"support gun", "lmg"},
	{"m249", "lmg"},
	{"smg", "smg"},
	{"submachine", "smg"},
	{"mp5", "smg"},
	{"mp7", "smg"},
	{"vector", "smg"},
	{"p90", "smg"},
	{"pistol", "pistol"},
	{"sidearm", "pistol"},
	{"revolver", "pistol"},
	{"glock", "pistol"},
	{"hi-capa", "pistol"},
	{"1911", "pistol"},
	{"vest", "gear"},
	{"holster", "gear"},
	{"goggle", "gear"},
	{"helmet", "gear"},
	{"plate carrier", "gear"},
	{"gearbox", "parts"},
	{"hop-up", "parts"},
	{"hop up", "parts"},
	{"barrel", "parts"},
	{"motor", "parts"},
	{"magazine", "parts"},
	{"rifle", "rifle"},
	{"carbine", "rifle"},
}

func resolve(name string, rules []keywordRule, fallback string) string {
	lower := strings.ToLower(name)
	for _, rule := range rules {
		if strings.Contains(lower, rule.keyword) {
			return rule.value
		}
	}
	return fallback
}

// DetectPlatform resolves the platform family from a listing name.
func DetectPlatform(name string) string {
	return resolve(name, platformRules, DefaultPlatform)
}

// DetectPowerType resolves the power type from a listing name, preferring
// the declared value when present.
func DetectPowerType(name, declared string) string {
	if declared != "" {
		return strings.ToLower(strings.TrimSpace(declared))
	}
	return resolve(name, powerTypeRules, DefaultPowerType)
}

// DetectCategory resolves the category from a listing name.
func DetectCategory(name string) string {
	return resolve(name, categoryRules, DefaultCategory)
}

// PriceBand is the expected price range for a power type.
type PriceBand struct {
	Min float64
	Max float64
}

// priceBands per power type; prices outside the band are advisory anomalies.
var priceBands = map[string]PriceBand{
	"aeg":        {Min: 100, Max: 1000},
	"gbbr":       {Min: 150, Max: 1200},
	"gbb_pistol": {Min: 80, Max: 500},
	"spring":     {Min: 20, Max: 400},
	"hpa":        {Min: 300, Max: 1800},
}

// defaultPriceBand covers power types without a dedicated band.
var defaultPriceBand = PriceBand{Min: 50, Max: 800}

// PriceBandFor returns the expected price band for a power type.
func PriceBandFor(powerType string) PriceBand {
	if band, ok := priceBands[strings.ToLower(powerType)]; ok {
		return band
	}
	return defaultPriceBand
}
