package common

import "time"

// DocumentInfo contains the metadata of a document's Info dictionary.
type DocumentInfo struct {
	Author   string `json:"author"`
	Creator  string `json:"creator"`
	Producer string `json:"producer"`
	Subject  string `json:"subject"`
	Title    string `json:"title"`

	Pages        int       `json:"pages"`
	Keywords     []string  `json:"keywords"`
	ModDate      time.Time `json:"mod_date"`
	CreationDate time.Time `json:"creation_date"`
}
