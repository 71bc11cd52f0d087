package investments

import "errors"

var (
	ErrAmountRequired         = errors.New("Amount must be greater than 0")
	ErrUserNotFound           = errors.New("User does not exist")
	ErrProjectNotFound        = errors.New("Project not found")
	ErrProjectNotOpen         = errors.New("Project is not open for investment")
	ErrNoShares               = errors.New("Investment must include at least one share")
	ErrNotEnoughShares        = errors.New("Not enough shares available")
	ErrCreateFailed           = errors.New("Failed to create investment")
	ErrInvestmentNotFound     = errors.New("Investment not found")
	ErrForbidden              = errors.New("You do not have access to this investment")
	ErrCertificateUnavailable = errors.New("Certificate is not available")
)

// createErrors are reported to the caller as is; anything else becomes ErrCreateFailed.
var createErrors = []error{ErrAmountRequired, ErrUserNotFound, ErrProjectNotFound, ErrProjectNotOpen, ErrNoShares, ErrNotEnoughShares}
