package entity

// Category is a curated taxonomy tag attached to entrepreneurs.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}
