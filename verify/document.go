package verify

import (
	"reflect"
	"strings"
	"time"

	"github.com/pdfseal/pdfseal/common"
	"github.com/pdfseal/pdfseal/internal/pdf"
)

// parseDocumentInfo parses document information from the Info dictionary.
func parseDocumentInfo(doc *pdf.Document, documentInfo *common.DocumentInfo) {
	keys := []string{
		"Author", "CreationDate", "Creator", "Keywords", "ModDate",
		"Producer", "Subject", "Title",
	}

	info := doc.Info()
	for _, key := range keys {
		value, ok := info[key]
		if !ok || value.Kind != pdf.String {
			continue
		}
		valueStr := value.Text()

		elem := reflect.ValueOf(documentInfo).Elem()
		field := elem.FieldByName(key)

		switch key {
		case "CreationDate", "ModDate":
			t, _ := parseDate(valueStr)
			field.Set(reflect.ValueOf(t))
		case "Keywords":
			documentInfo.Keywords = parseKeywords(valueStr)
		default:
			field.Set(reflect.ValueOf(valueStr))
		}
	}

	documentInfo.Pages = doc.NumPage()
}

// parseDate parses PDF formatted dates.
func parseDate(v string) (time.Time, error) {
	// PDF Date Format
	// (D:YYYYMMDDHHmmSSOHH'mm')
	//
	// where
	//
	// YYYY is the year
	// MM is the month
	// DD is the day (01-31)
	// HH is the hour (00-23)
	// mm is the minute (00-59)
	// SS is the second (00-59)
	// O is the relationship of local time to Universal Time (UT), denoted by one of the characters +, -, or Z (see below)
	// HH followed by ' is the absolute value of the offset from UT in hours (00-23)
	// mm followed by ' is the absolute value of the offset from UT in minutes (00-59)
	layouts := []string{
		"D:20060102150405Z07'00'",
		"D:20060102150405Z07'00",
		"D:20060102150405Z",
		"D:20060102150405",
		"D:200601021504",
		"D:20060102",
	}

	var (
		t   time.Time
		err error
	)
	for _, layout := range layouts {
		if t, err = time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return t, err
}

// parseKeywords parses keywords PDF metadata.
func parseKeywords(value string) []string {
	// keywords must be separated by commas or semicolons or could be just separated with spaces, after the semicolon could be a space
	// https://stackoverflow.com/questions/44608608/the-separator-between-keywords-in-pdf-meta-data
	separators := []string{", ", ": ", ",", ":", " ", "; ", ";", " ;"}
	for _, s := range separators {
		if strings.Contains(value, s) {
			return strings.Split(value, s)
		}
	}

	return []string{value}
}
