// Package spreadsheet reads sample import sheets and writes exports and the
// import template as xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"time"
)

// Column headers, spelled as the lab sheets spell them
const (
	ColInternalNumber  = "Mikrogen Internal Number"
	ColProviderNumber  = "Provider Number"
	ColProvider        = "Provider"
	ColTarget          = "Target"
	ColPositiveFor     = "Positive For"
	ColNegativeFor     = "Negative For"
	ColSampleType      = "Sample Type"
	ColStoragePlace    = "Storage Place"
	ColDrawDate        = "Date of Draw"
	ColAge             = "Age"
	ColGender          = "Gender"
	ColCountry         = "Country of Origin"
	ColExtractionDate  = "Extraction Date"
	ColExtractor       = "Extractor"
	ColCycler          = "Cycler"
	ColMikrogenKit     = "PCR Kit (Mikrogen)"
	ColExternalKit     = "PCR Kit (External)"
	ColMikrogenCT      = "CT Value (Mikrogen)"
	ColExternalCT      = "CT Value (External)"
	ColVolume          = "Sample Volume"
	ColVolumeRemaining = "Sample Volume Remaining"
	ColNotes           = "Notes"
)

// ImportColumns is the template header row
var ImportColumns = []string{
	ColInternalNumber, ColProviderNumber, ColProvider, ColTarget, ColPositiveFor,
	ColNegativeFor, ColSampleType, ColStoragePlace, ColDrawDate, ColAge, ColGender,
	ColCountry, ColExtractionDate, ColExtractor, ColCycler, ColMikrogenKit,
	ColExternalKit, ColMikrogenCT, ColExternalCT, ColVolume, ColNotes,
}

// ExportColumns adds the remaining volume before the notes.
var ExportColumns = []string{
	ColInternalNumber, ColProviderNumber, ColProvider, ColTarget, ColPositiveFor,
	ColNegativeFor, ColSampleType, ColStoragePlace, ColDrawDate, ColAge, ColGender,
	ColCountry, ColExtractionDate, ColExtractor, ColCycler, ColMikrogenKit,
	ColExternalKit, ColMikrogenCT, ColExternalCT, ColVolume, ColVolumeRemaining, ColNotes,
}

// RequiredColumns must be present in an import sheet
var RequiredColumns = []string{ColInternalNumber, ColProvider, ColTarget, ColSampleType, ColVolume}

// dateColumns hold dates that may arrive as Excel serial numbers
var dateColumns = map[string]bool{ColDrawDate: true, ColExtractionDate: true}

// TemplateFilename is the download name of the empty import sheet
const TemplateFilename = "pcr_samples_template.xlsx"

// ContentType is the MIME type of the workbooks produced here
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportFilename names an export made at t
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("PCR_Datenbank_%s.xlsx", t.Format("20060102"))
}
