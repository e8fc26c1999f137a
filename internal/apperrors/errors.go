package apperrors

import "errors"

var (
	ErrConfig           = errors.New("invalid configuration")
	ErrNoEligibleRecipe = errors.New("no eligible recipe")
	ErrRecipeNotFound   = errors.New("recipe not found")
	ErrSessionClosed    = errors.New("menu already accepted")
	ErrNotFound         = errors.New("not found")
)
