package wallet

import "errors"

var (
	ErrAmountRequired            = errors.New("Amount must be greater than 0")
	ErrPaymentVerificationFailed = errors.New("Payment verification failed")
	ErrPaymentAmountMismatch     = errors.New("Payment amount does not match")
	ErrPaymentAlreadyProcessed   = errors.New("Payment already processed")
	ErrInsufficientBalance       = errors.New("Insufficient balance")
	ErrWithdrawalFailed          = errors.New("Withdrawal failed")
	ErrBankDetailsRequired       = errors.New("Bank account details are required")
	ErrBonusNameRequired         = errors.New("Bonus name is required")
)
