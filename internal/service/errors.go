package service

import "errors"

var (
	ErrChargeInvalid       = errors.New("charge input invalid")
	ErrGatewayFailed       = errors.New("payment gateway request failed")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPaymentFetchFailed  = errors.New("payment fetch failed")
	ErrPaymentCreateFailed = errors.New("payment create failed")
	ErrPaymentUpdateFailed = errors.New("payment update failed")
	ErrCodeInsufficient    = errors.New("no activation code available")
	ErrCodesInvalid        = errors.New("code list invalid")
)
