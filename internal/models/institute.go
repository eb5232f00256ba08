package models

// Institute represents the educational institution a plan pays fees to
type Institute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
