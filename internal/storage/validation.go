// Package storage provides the data persistence layer for the tally application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/petgully/tally/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
	ErrInvalidRule  = errors.New("invalid rule")
	ErrInvalidTxn   = errors.New("invalid transaction")
	ErrRuleNotFound = errors.New("rule not found")
	ErrTxnNotFound  = errors.New("transaction not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRule validates a keyword rule before it is written.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := validateString(rule.Name, "name"); err != nil {
		return err
	}
	if err := validateString(rule.MainCategory, "main_category"); err != nil {
		return err
	}
	if err := validateString(rule.SubCategory, "sub_category"); err != nil {
		return err
	}
	if len(rule.Any) == 0 {
		return fmt.Errorf("%w: rule %q has no keywords", ErrInvalidRule, rule.Name)
	}
	if rule.Confidence < 0 || rule.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidRule)
	}
	return nil
}

// validateSalaryRule validates a salary-name rule before it is written.
func validateSalaryRule(rule *model.SalaryRule) error {
	if rule == nil {
		return fmt.Errorf("%w: salary rule", ErrNilParameter)
	}
	if err := validateString(rule.EmployeeName, "employee_name"); err != nil {
		return err
	}
	return validateString(rule.SubCategory, "sub_category")
}

// validateTransactions validates a slice of corpus transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}
	for i, txn := range transactions {
		if txn.Hash == "" {
			return fmt.Errorf("%w: transaction at index %d is missing its hash", ErrInvalidTxn, i)
		}
		if txn.Date.IsZero() {
			return fmt.Errorf("%w: transaction at index %d is missing its date", ErrInvalidTxn, i)
		}
	}
	return nil
}
