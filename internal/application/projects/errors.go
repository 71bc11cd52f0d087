package projects

import "errors"

var (
	ErrProjectNotFound       = errors.New("Project not found")
	ErrNameRequired          = errors.New("Project name is required")
	ErrInvalidRequirement    = errors.New("Investment required must be greater than 0")
	ErrInvalidSharePrice     = errors.New("Share price must be greater than 0")
	ErrSharePriceTooHigh     = errors.New("Share price cannot exceed investment required")
	ErrInvalidInitialStatus  = errors.New("New projects must be OPEN or UPCOMING")
	ErrInvalidReturn         = errors.New("Expected return cannot be negative")
	ErrProjectHasInvestments = errors.New("Project has investments")
	ErrForbidden             = errors.New("You do not have permission to modify this project")
)
