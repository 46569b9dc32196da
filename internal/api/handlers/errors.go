package handlers

import "errors"

var (
	errDatabaseConnection = errors.New("database connection failed")
	errDatabasePing       = errors.New("database ping failed")
	errBadSignature       = errors.New("webhook signature verification failed")
)
