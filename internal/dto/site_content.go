package dto

// SiteContentItem is a single piece of site copy.
type SiteContentItem struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

// BulkSiteContentRequest updates several pieces of copy at once.
type BulkSiteContentRequest struct {
	Items []SiteContentItem `json:"items" validate:"required,min=1,dive"`
}
