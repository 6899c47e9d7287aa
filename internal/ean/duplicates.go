package ean

import (
	"context"
	"errors"
)

// ExistsFunc reports whether an EAN-13 is already persisted.
type ExistsFunc func(ctx context.Context, ean string) (bool, error)

// LookupError records a failed ExistsFunc call.
type LookupError struct {
	EAN string
	Err error
}

func (e LookupError) Error() string { return "ean: consulta de " + e.EAN + ": " + e.Err.Error() }

func (e LookupError) Unwrap() error { return e.Err }

// DuplicateReport is the outcome of FindDuplicates.
type DuplicateReport struct {
	// Codes holds each duplicated EAN once, in order of detection.
	Codes []string
	// LookupErrors holds the predicate failures that were treated as "not found".
	LookupErrors []LookupError
}

// HasDuplicates reports whether any code was flagged.
func (r DuplicateReport) HasDuplicates() bool { return len(r.Codes) > 0 }

// FindDuplicates flags codes repeated inside codes and codes for which
// exists returns true. It never fails: predicate errors count as "not
// found" and are returned in LookupErrors so the caller can log them.
// Codes that do not normalize to 13 digits are skipped; Validate reports
// those.
func FindDuplicates(ctx context.Context, codes []string, exists ExistsFunc) DuplicateReport {
	var rep DuplicateReport
	seen := make(map[string]struct{}, len(codes))
	flagged := make(map[string]struct{})
	for _, raw := range codes {
		s, ok := normalize13(raw)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			if _, done := flagged[s]; !done {
				flagged[s] = struct{}{}
				rep.Codes = append(rep.Codes, s)
			}
			continue
		}
		seen[s] = struct{}{}
		if exists == nil {
			continue
		}
		found, err := safeExists(ctx, exists, s)
		if err != nil {
			rep.LookupErrors = append(rep.LookupErrors, LookupError{EAN: s, Err: err})
			continue
		}
		if found {
			flagged[s] = struct{}{}
			rep.Codes = append(rep.Codes, s)
		}
	}
	return rep
}

// CheckUnique is the strict form used when committing: the first
// predicate error aborts and is returned.
func CheckUnique(ctx context.Context, codes []string, exists ExistsFunc) ([]string, error) {
	var dupes []string
	seen := make(map[string]struct{}, len(codes))
	for _, raw := range codes {
		s, ok := normalize13(raw)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		found, err := exists(ctx, s)
		if err != nil {
			return nil, LookupError{EAN: s, Err: err}
		}
		if found {
			dupes = append(dupes, s)
		}
	}
	return dupes, nil
}

func normalize13(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	s, err := Normalize(raw, 13)
	if err != nil || s == "0000000000000" {
		return "", false
	}
	return s, true
}

var errLookupPanic = errors.New("ean: la consulta de existencia entró en pánico")

// safeExists keeps a panicking predicate from breaking the guard.
func safeExists(ctx context.Context, exists ExistsFunc, s string) (found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = false, errLookupPanic
		}
	}()
	return exists(ctx, s)
}
