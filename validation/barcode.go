package validation

import "github.com/ahmadzakiakmal/rf-receiving/repository/models"

// Segments are the lot and date pieces cut out of a long barcode scan
type Segments struct {
	Lot  string
	Date string
}

// SplitBarcode cuts a scan into lot and date segments when its length is the
// profile's barcode length. ok is false for any other scan.
func SplitBarcode(p *models.RequirementProfile, scan string) (Segments, bool) {
	if p == nil || p.BarcodeLength <= 0 || len(scan) != p.BarcodeLength {
		return Segments{}, false
	}
	return Segments{
		Lot:  segment(scan, p.LotStart, p.LotLength),
		Date: segment(scan, p.DateStart, p.DateLength),
	}, true
}

// segment uses 1-based start offsets as configured on the profile
func segment(s string, start, length int) string {
	if start <= 0 || length <= 0 || start-1+length > len(s) {
		return ""
	}
	return s[start-1 : start-1+length]
}
