package geocode

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// twCities lists the Taiwanese top-level administrative names recognized at
// the start of an address, including the 臺/台 spelling variants.
var twCities = []string{
	"臺北市", "台北市",
	"新北市",
	"基隆市",
	"桃園市",
	"新竹市", "新竹縣",
	"苗栗縣",
	"臺中市", "台中市",
	"彰化縣",
	"南投縣",
	"雲林縣",
	"嘉義市", "嘉義縣",
	"臺南市", "台南市",
	"高雄市",
	"屏東縣",
	"宜蘭縣",
	"花蓮縣",
	"臺東縣", "台東縣",
	"澎湖縣",
	"金門縣",
	"連江縣",
}

// districtRe captures the second-level division that follows the city:
// ○○市 / ○○區 / ○○鎮 / ○○鄉 / ○○村 / ○○里.
var districtRe = regexp.MustCompile(`^(.+?(市|區|鎮|鄉|村|里))`)

// Region is the administrative split of a Taiwanese address.
type Region struct {
	City     string
	District string
}

// NormalizeAddress trims an address and folds full-width ASCII (digits,
// dashes, letters) to half-width so user input and provider output compare
// equal. CJK characters are untouched.
func NormalizeAddress(addr string) string {
	return strings.TrimSpace(width.Narrow.String(addr))
}

// ParseTWRegion extracts the city and district from the front of a Chinese
// address string. Unknown leading text yields an empty Region; a known city
// with no recognizable district yields City only. Addresses may carry a
// leading house-number prefix (e.g. "100臺北市..."), which is skipped.
func ParseTWRegion(addr string) Region {
	addr = NormalizeAddress(addr)
	if addr == "" {
		return Region{}
	}

	var city, rest string
	for i := range addr {
		for _, c := range twCities {
			if strings.HasPrefix(addr[i:], c) {
				city = c
				rest = addr[i+len(c):]
				break
			}
		}
		if city != "" {
			break
		}
	}
	if city == "" {
		return Region{}
	}

	m := districtRe.FindStringSubmatch(rest)
	if m == nil {
		return Region{City: city}
	}
	return Region{City: city, District: m[1]}
}
