package apperrors

import (
	"errors"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEventNotFound = errors.New("event not found")

	ErrInvalidAmount      = errors.New("amount must be a positive number of minor units")
	ErrAmountMismatch     = errors.New("captured amount does not match event fee")
	ErrSelfPayment        = errors.New("buyer and seller are the same user")
	ErrPaymentNotCaptured = errors.New("payment authorization is not captured")

	ErrReceiptAlreadyExists = errors.New("receipt already exists for this order")
	ErrReceiptNotFound      = errors.New("receipt not found")

	ErrWalletNotFound      = errors.New("wallet not found")
	ErrBalanceInsufficient = errors.New("insufficient balance")
)
